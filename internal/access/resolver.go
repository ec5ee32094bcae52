// Package access decides who may exchange live-chat messages with whom.
// Every citizen maps to at most one administrator, picked deterministically
// from geography and current staffing; every administrator send is verified
// against the jurisdiction matrix before anything is persisted.
package access

import (
	"errors"

	"civicchat/backend/internal/models"
)

var (
	// ErrUserNotFound is returned when the referenced citizen does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoAssignment is returned when a citizen carries neither a ward nor
	// a zone, so resolution cannot even start.
	ErrNoAssignment = errors.New("user has no assigned ward or zone")
)

// Directory is the slice of storage the resolver needs. Finders return
// (nil, nil) when nothing matches; that is a valid outcome, not an error.
type Directory interface {
	GetUserByID(id uint) (*models.User, error)
	FindActiveAdminByWard(wardID uint) (*models.User, error)
	FindActiveAdminByZone(zoneID uint) (*models.User, error)
}

// Resolver computes the single administrator assigned to a citizen.
type Resolver struct {
	Directory Directory
}

// NewResolver creates a resolver over the given user directory.
func NewResolver(d Directory) *Resolver {
	return &Resolver{Directory: d}
}

// Resolve finds the administrator currently responsible for the citizen.
//
// Priority is ward first, zone second: an ACTIVE ADMIN on the citizen's
// ward wins over an ACTIVE SUPER_ADMIN on their zone. A (nil, nil) return
// means no administrator is staffed for either level right now; callers
// must treat that as a legitimate state ("no admin assigned"), not a
// failure. Results are never cached: staffing and geography change, so
// every call re-queries the directory.
func (r *Resolver) Resolve(citizenID uint) (*models.User, error) {
	citizen, err := r.Directory.GetUserByID(citizenID)
	if err != nil {
		return nil, err
	}
	if citizen == nil {
		return nil, ErrUserNotFound
	}
	if citizen.WardID == nil && citizen.ZoneID == nil {
		return nil, ErrNoAssignment
	}

	if citizen.WardID != nil {
		admin, err := r.Directory.FindActiveAdminByWard(*citizen.WardID)
		if err != nil {
			return nil, err
		}
		if admin != nil {
			return admin, nil
		}
	}

	if citizen.ZoneID != nil {
		admin, err := r.Directory.FindActiveAdminByZone(*citizen.ZoneID)
		if err != nil {
			return nil, err
		}
		if admin != nil {
			return admin, nil
		}
	}

	return nil, nil
}

// CheckAccess reports whether the administrator may exchange messages with
// the citizen. It is a pure function over role and geography, wider than
// Resolve on purpose: a MASTER_ADMIN may reach any citizen in their city
// corporation even though Resolve would have picked a ward admin.
func CheckAccess(admin, citizen *models.User) bool {
	if admin == nil || citizen == nil {
		return false
	}
	switch admin.Role {
	case models.RoleMasterAdmin:
		return admin.CityCorporationCode != "" &&
			admin.CityCorporationCode == citizen.CityCorporationCode
	case models.RoleSuperAdmin:
		return admin.ZoneID != nil && citizen.ZoneID != nil &&
			*admin.ZoneID == *citizen.ZoneID
	case models.RoleAdmin:
		return admin.WardID != nil && citizen.WardID != nil &&
			*admin.WardID == *citizen.WardID
	case models.RoleCitizen:
		return false
	}
	return false
}
