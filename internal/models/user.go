package models

import "gorm.io/gorm"

// Role identifies what an account is allowed to do. It is a closed set:
// CheckAccess and the jurisdiction queries switch exhaustively over it,
// so adding a role is a compile-visible change, not a string comparison
// scattered across handlers.
type Role string

const (
	RoleCitizen     Role = "CITIZEN"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleMasterAdmin Role = "MASTER_ADMIN"
)

// Status is the account lifecycle state. Only ACTIVE administrators are
// visible to chat resolution.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// User represents any actor in the system: a citizen or an administrator
// of one of the three tiers. Geography is the signup location for citizens;
// for administrators exactly one field is authoritative (ward for ADMIN,
// zone for SUPER_ADMIN, city corporation for MASTER_ADMIN).
type User struct {
	gorm.Model

	FirstName   string `gorm:"type:text;not null" json:"firstName"`
	LastName    string `gorm:"type:text" json:"lastName"`
	Phone       string `gorm:"type:text;uniqueIndex" json:"phone"`
	Avatar      string `gorm:"type:text" json:"avatar,omitempty"`
	Designation string `gorm:"type:text" json:"designation,omitempty"`

	Role   Role   `gorm:"type:text;not null;index" json:"role"`
	Status Status `gorm:"type:text;not null;default:ACTIVE" json:"status"`

	WardID              *uint  `gorm:"index" json:"wardId,omitempty"`
	ZoneID              *uint  `gorm:"index" json:"zoneId,omitempty"`
	CityCorporationCode string `gorm:"type:text;index" json:"cityCorporationCode,omitempty"`

	// TelegramChatID links an administrator to the notification bot.
	// Zero means not linked.
	TelegramChatID int64 `gorm:"default:0" json:"-"`
}

// IsAdminRole reports whether the user holds any administrator tier.
func (u *User) IsAdminRole() bool {
	switch u.Role {
	case RoleAdmin, RoleSuperAdmin, RoleMasterAdmin:
		return true
	case RoleCitizen:
		return false
	}
	return false
}

// FullName joins first and last name for display and search results.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
