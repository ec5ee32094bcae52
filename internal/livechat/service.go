// Package livechat implements the citizen/administrator message thread:
// append-only persistence, read acknowledgement, unread counters and the
// administrator inbox aggregation. Access decisions come from
// internal/access; throttling happens upstream in the gateway middleware.
package livechat

import (
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"civicchat/backend/internal/access"
	"civicchat/backend/internal/config"
	"civicchat/backend/internal/models"
	"civicchat/backend/internal/storage"
)

// Notifier is the optional out-of-band channel (Telegram) poked when a
// citizen writes to their administrator. Failures are logged, never
// propagated: notification is best effort.
type Notifier interface {
	NotifyAdmin(admin *models.User, citizen *models.User, msg *models.ChatMessage)
}

// Service owns the live-chat business logic.
type Service struct {
	Storage  storage.Storage
	Resolver *access.Resolver
	Notifier Notifier
}

// NewService creates the live-chat service. notifier may be nil.
func NewService(s storage.Storage, notifier Notifier) *Service {
	return &Service{
		Storage:  s,
		Resolver: access.NewResolver(s),
		Notifier: notifier,
	}
}

// MessageInput is the validated content of a send request.
type MessageInput struct {
	Content  string
	FileURL  string
	VoiceURL string
}

// Validate trims the text and enforces the content rules: something must be
// present (text or media) and text is capped at 5000 characters. The cap
// counts runes, not bytes, so multibyte scripts get the full limit.
func (in *MessageInput) Validate() error {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" && in.FileURL == "" && in.VoiceURL == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(in.Content) > config.MaxMessageLength {
		return ErrContentTooLong
	}
	return nil
}

// MessageKind classifies the input: media URLs win over plain text.
func (in *MessageInput) MessageKind() models.MessageType {
	switch {
	case in.FileURL != "":
		return models.MessageTypeImage
	case in.VoiceURL != "":
		return models.MessageTypeVoice
	default:
		return models.MessageTypeText
	}
}

// Thread is one page of a conversation's history.
type Thread struct {
	Messages []models.ChatMessage `json:"messages"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
	HasMore  bool                 `json:"hasMore"`
}

// SendCitizenMessage resolves the citizen's administrator and appends the
// message. The caller has already authenticated the sender and passed rate
// limiting; content is validated here so the service is safe on its own.
func (s *Service) SendCitizenMessage(citizenID uint, in MessageInput) (*models.ChatMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.Resolver.Resolve(citizenID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNoAdminAssigned
	}

	msg := &models.ChatMessage{
		Content:    in.Content,
		Type:       in.MessageKind(),
		FileURL:    in.FileURL,
		VoiceURL:   in.VoiceURL,
		SenderID:   citizenID,
		ReceiverID: admin.ID,
		SenderType: models.SenderCitizen,
	}
	if err := s.Storage.SaveMessage(msg); err != nil {
		return nil, err
	}

	s.publish(models.ChatEvent{
		Kind:       models.EventMessage,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Message:    msg,
	})

	if s.Notifier != nil {
		if citizen, err := s.Storage.GetUserByID(citizenID); err == nil && citizen != nil {
			// Best effort and off the request path: a slow Telegram call must
			// not delay the sender's response.
			go s.Notifier.NotifyAdmin(admin, citizen, msg)
		}
	}

	return msg, nil
}

// SendAdminMessage appends a message from an administrator to a citizen
// after the jurisdiction check. Administrators are never restricted to the
// Resolve pick: CheckAccess is the authority here.
func (s *Service) SendAdminMessage(adminID, citizenID uint, in MessageInput) (*models.ChatMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.Storage.GetUserByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	citizen, err := s.Storage.GetUserByID(citizenID)
	if err != nil {
		return nil, err
	}
	if citizen == nil {
		return nil, ErrNotFound
	}
	if citizen.Role != models.RoleCitizen {
		return nil, ErrNotACitizen
	}
	if !access.CheckAccess(admin, citizen) {
		return nil, ErrForbidden
	}

	msg := &models.ChatMessage{
		Content:    in.Content,
		Type:       in.MessageKind(),
		FileURL:    in.FileURL,
		VoiceURL:   in.VoiceURL,
		SenderID:   adminID,
		ReceiverID: citizenID,
		SenderType: models.SenderAdmin,
	}
	if err := s.Storage.SaveMessage(msg); err != nil {
		return nil, err
	}

	s.publish(models.ChatEvent{
		Kind:       models.EventMessage,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Message:    msg,
	})

	return msg, nil
}

// GetThread loads one page of the bidirectional history between two users,
// oldest first. A pair that never exchanged a message gets an empty page
// with total 0, not an error.
func (s *Service) GetThread(a, b uint, page, limit int) (*Thread, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = config.DefaultThreadLimit
	}
	skip := (page - 1) * limit

	messages, err := s.Storage.GetMessagesBetween(a, b, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.Storage.CountMessagesBetween(a, b)
	if err != nil {
		return nil, err
	}

	return &Thread{
		Messages: messages,
		Total:    total,
		Page:     page,
		Limit:    limit,
		HasMore:  int64(skip+len(messages)) < total,
	}, nil
}

// GetCitizenThread resolves the citizen's administrator and returns their
// thread page plus the admin summary. With no resolvable administrator the
// thread is empty and AssignedAdmin nil; the app renders "no admin
// assigned" from that.
func (s *Service) GetCitizenThread(citizenID uint, page, limit int) (*Thread, *models.User, error) {
	admin, err := s.Resolver.Resolve(citizenID)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil {
		return &Thread{Messages: []models.ChatMessage{}, Page: max(page, 1), Limit: limit}, nil, nil
	}
	thread, err := s.GetThread(citizenID, admin.ID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return thread, admin, nil
}

// MarkRead acknowledges every unread message sent by senderID to
// receiverID. Idempotent: a second call updates zero rows.
func (s *Service) MarkRead(senderID, receiverID uint) (int64, error) {
	updated, err := s.Storage.MarkMessagesRead(senderID, receiverID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.publish(models.ChatEvent{
			Kind:       models.EventRead,
			SenderID:   senderID,
			ReceiverID: receiverID,
		})
	}
	return updated, nil
}

// MarkCitizenRead acknowledges the administrator->citizen direction for the
// citizen's resolved administrator.
func (s *Service) MarkCitizenRead(citizenID uint) (int64, error) {
	admin, err := s.Resolver.Resolve(citizenID)
	if err != nil {
		return 0, err
	}
	if admin == nil {
		return 0, ErrNoAdminAssigned
	}
	return s.MarkRead(admin.ID, citizenID)
}

// UnreadCount counts messages addressed to the user still unread.
func (s *Service) UnreadCount(userID uint) (int64, error) {
	return s.Storage.CountUnreadForReceiver(userID)
}

func (s *Service) publish(event models.ChatEvent) {
	if err := s.Storage.PublishEvent(event); err != nil {
		log.Printf("WARNING: failed to publish chat event: %v", err)
	}
}

// --- Administrator inbox aggregation ---

// InboxFilters narrows and pages the conversation list. Geography fields
// may narrow the jurisdiction further; they can never widen it because the
// jurisdiction clause is applied first.
type InboxFilters struct {
	Page                int
	Limit               int
	WardID              *uint
	ZoneID              *uint
	CityCorporationCode string
	UnreadOnly          bool
	Search              string
}

// Conversation is one inbox row: the citizen, the newest message of the
// pair and how many of their messages the administrator has not read.
type Conversation struct {
	User        models.User         `json:"user"`
	LastMessage *models.ChatMessage `json:"lastMessage"`
	UnreadCount int64               `json:"unreadCount"`
}

// Inbox is one page of an administrator's conversation list.
type Inbox struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	HasMore       bool           `json:"hasMore"`
}

// ListConversations builds the administrator's inbox. The jurisdiction base
// filter comes from the administrator's own role (same matrix as
// CheckAccess); only citizens with at least one exchanged message qualify.
// unreadOnly is applied before pagination and Total reflects the filtered
// set, so page boundaries stay faithful.
func (s *Service) ListConversations(adminID uint, f InboxFilters) (*Inbox, error) {
	admin, err := s.Storage.GetUserByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}

	filter, err := jurisdictionFilter(admin, f)
	if err != nil {
		return nil, err
	}

	citizens, err := s.Storage.FindCitizensWithConversation(adminID, filter)
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(citizens))
	for _, citizen := range citizens {
		last, err := s.Storage.GetLastMessageBetween(citizen.ID, adminID)
		if err != nil {
			return nil, err
		}
		if last == nil {
			// The has-message subquery should make this impossible; a hit
			// here means the message log and user table disagree.
			log.Printf("WARNING: citizen %d matched conversation query but has no messages with admin %d", citizen.ID, adminID)
			continue
		}
		unread, err := s.Storage.CountUnreadBetween(citizen.ID, adminID)
		if err != nil {
			return nil, err
		}
		if f.UnreadOnly && unread == 0 {
			continue
		}
		conversations = append(conversations, Conversation{
			User:        citizen,
			LastMessage: last,
			UnreadCount: unread,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})

	page := max(f.Page, 1)
	limit := f.Limit
	if limit < 1 {
		limit = config.DefaultInboxLimit
	}
	total := len(conversations)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &Inbox{
		Conversations: conversations[start:end],
		Total:         total,
		Page:          page,
		Limit:         limit,
		HasMore:       end < total,
	}, nil
}

// jurisdictionFilter derives the base geography clause from the admin's
// role and overlays the requested overrides, rejecting any override that
// would reach outside the jurisdiction.
func jurisdictionFilter(admin *models.User, f InboxFilters) (storage.CitizenFilter, error) {
	filter := storage.CitizenFilter{Search: f.Search}

	switch admin.Role {
	case models.RoleAdmin:
		filter.WardID = admin.WardID
	case models.RoleSuperAdmin:
		filter.ZoneID = admin.ZoneID
		if f.WardID != nil {
			filter.WardID = f.WardID
		}
	case models.RoleMasterAdmin:
		filter.CityCorporationCode = admin.CityCorporationCode
		if f.ZoneID != nil {
			filter.ZoneID = f.ZoneID
		}
		if f.WardID != nil {
			filter.WardID = f.WardID
		}
	case models.RoleCitizen:
		return filter, ErrForbidden
	default:
		return filter, ErrForbidden
	}

	return filter, nil
}

// Statistics summarizes an administrator's jurisdiction: how many citizens
// have an open conversation with them, how many messages await reading and
// how much traffic today brought.
type Statistics struct {
	TotalConversations int   `json:"totalConversations"`
	UnreadMessages     int64 `json:"unreadMessages"`
	TodayMessages      int64 `json:"todayMessages"`
}

// GetStatistics computes the jurisdiction-scoped dashboard numbers.
func (s *Service) GetStatistics(adminID uint) (*Statistics, error) {
	admin, err := s.Storage.GetUserByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}

	filter, err := jurisdictionFilter(admin, InboxFilters{})
	if err != nil {
		return nil, err
	}
	citizens, err := s.Storage.FindCitizensWithConversation(adminID, filter)
	if err != nil {
		return nil, err
	}

	unread, err := s.Storage.CountUnreadForReceiver(adminID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.Storage.CountMessagesForUserSince(adminID, midnight)
	if err != nil {
		return nil, err
	}

	return &Statistics{
		TotalConversations: len(citizens),
		UnreadMessages:     unread,
		TodayMessages:      today,
	}, nil
}

// GetAdminThread is the per-citizen thread view for administrators, gated
// by the same jurisdiction check as sending.
func (s *Service) GetAdminThread(adminID, citizenID uint, page, limit int) (*Thread, *models.User, error) {
	admin, err := s.Storage.GetUserByID(adminID)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil {
		return nil, nil, ErrNotFound
	}
	citizen, err := s.Storage.GetUserByID(citizenID)
	if err != nil {
		return nil, nil, err
	}
	if citizen == nil {
		return nil, nil, ErrNotFound
	}
	if !access.CheckAccess(admin, citizen) {
		return nil, nil, ErrForbidden
	}

	thread, err := s.GetThread(citizenID, adminID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return thread, citizen, nil
}

// MarkAdminThreadRead acknowledges the citizen->admin direction after the
// jurisdiction check.
func (s *Service) MarkAdminThreadRead(adminID, citizenID uint) (int64, error) {
	admin, err := s.Storage.GetUserByID(adminID)
	if err != nil {
		return 0, err
	}
	if admin == nil {
		return 0, ErrNotFound
	}
	citizen, err := s.Storage.GetUserByID(citizenID)
	if err != nil {
		return 0, err
	}
	if citizen == nil {
		return 0, ErrNotFound
	}
	if !access.CheckAccess(admin, citizen) {
		return 0, ErrForbidden
	}
	return s.MarkRead(citizenID, adminID)
}
