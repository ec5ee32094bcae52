package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"civicchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LiveChatChannel is the Redis Pub/Sub channel carrying chat events to
// every running instance.
const LiveChatChannel = "livechat:events"

// Storage is the persistence surface the services depend on. User and
// message finders return (nil, nil) when nothing matches.
type Storage interface {
	GetUserByID(id uint) (*models.User, error)
	FindActiveAdminByWard(wardID uint) (*models.User, error)
	FindActiveAdminByZone(zoneID uint) (*models.User, error)
	SaveUser(user *models.User) error

	SaveMessage(msg *models.ChatMessage) error
	GetMessagesBetween(a, b uint, offset, limit int) ([]models.ChatMessage, error)
	CountMessagesBetween(a, b uint) (int64, error)
	GetLastMessageBetween(a, b uint) (*models.ChatMessage, error)
	MarkMessagesRead(senderID, receiverID uint) (int64, error)
	CountUnreadForReceiver(receiverID uint) (int64, error)
	CountUnreadBetween(senderID, receiverID uint) (int64, error)
	CountMessagesForUserSince(userID uint, since time.Time) (int64, error)

	FindCitizensWithConversation(adminID uint, f CitizenFilter) ([]models.User, error)

	PublishEvent(event models.ChatEvent) error
}

// CitizenFilter narrows the jurisdiction candidate set for the admin inbox.
// Zero values mean "no extra filter".
type CitizenFilter struct {
	WardID              *uint
	ZoneID              *uint
	CityCorporationCode string
	Search              string
}

// Service is the GORM+Redis implementation of Storage.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService wires a storage service over the given connections. Redis may
// be nil for CLI tools that only touch PostgreSQL.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUserByID loads one user, (nil, nil) when the row does not exist.
func (s *Service) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveAdminByWard finds the ACTIVE ward-level ADMIN for a ward.
func (s *Service) FindActiveAdminByWard(wardID uint) (*models.User, error) {
	return s.findActiveAdmin(models.RoleAdmin, "ward_id = ?", wardID)
}

// FindActiveAdminByZone finds the ACTIVE zone-level SUPER_ADMIN for a zone.
func (s *Service) FindActiveAdminByZone(zoneID uint) (*models.User, error) {
	return s.findActiveAdmin(models.RoleSuperAdmin, "zone_id = ?", zoneID)
}

func (s *Service) findActiveAdmin(role models.Role, cond string, arg uint) (*models.User, error) {
	var admin models.User
	err := s.DB.
		Where("role = ? AND status = ?", role, models.StatusActive).
		Where(cond, arg).
		First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// SaveUser upserts a user row.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// SaveMessage inserts one immutable message row. GORM fills ID/CreatedAt.
func (s *Service) SaveMessage(msg *models.ChatMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: failed to save message from %d to %d: %v", msg.SenderID, msg.ReceiverID, err)
		return err
	}
	return nil
}

// GetMessagesBetween returns the bidirectional history of a pair, oldest
// first. Ties on created_at fall back to insertion order via id.
func (s *Service) GetMessagesBetween(a, b uint, offset, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: failed to load messages between %d and %d: %v", a, b, err)
		return nil, err
	}
	return messages, nil
}

// CountMessagesBetween counts the full bidirectional history of a pair.
func (s *Service) CountMessagesBetween(a, b uint) (int64, error) {
	var total int64
	err := s.DB.Model(&models.ChatMessage{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Count(&total).Error
	return total, err
}

// GetLastMessageBetween returns the newest message of a pair, (nil, nil)
// when they never exchanged one.
func (s *Service) GetLastMessageBetween(a, b uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at desc, id desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessagesRead flips is_read false -> true for every message sent by
// senderID to receiverID. Returns the number of rows updated; zero when
// everything was already read, which is not an error.
func (s *Service) MarkMessagesRead(senderID, receiverID uint) (int64, error) {
	result := s.DB.Model(&models.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	if result.Error != nil {
		log.Printf("ERROR: failed to mark messages read (%d -> %d): %v", senderID, receiverID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountUnreadForReceiver counts all unread messages addressed to a user.
func (s *Service) CountUnreadForReceiver(receiverID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// CountUnreadBetween counts unread messages from one specific sender.
func (s *Service) CountUnreadBetween(senderID, receiverID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Count(&count).Error
	return count, err
}

// CountMessagesForUserSince counts messages sent or received by a user
// after the given time. Used for the daily-activity statistic.
func (s *Service) CountMessagesForUserSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.DB.Model(&models.ChatMessage{}).
		Where("(sender_id = ? OR receiver_id = ?) AND created_at >= ?", userID, userID, since).
		Count(&count).Error
	return count, err
}

// FindCitizensWithConversation returns the citizens matching the filter who
// have exchanged at least one message with the administrator, in either
// direction. The IN-subquery keeps the candidate set bounded by actual
// conversations rather than the whole user table.
func (s *Service) FindCitizensWithConversation(adminID uint, f CitizenFilter) ([]models.User, error) {
	query := s.DB.
		Where("role = ?", models.RoleCitizen).
		Where(`id IN (
			SELECT sender_id FROM chat_messages WHERE receiver_id = ?
			UNION
			SELECT receiver_id FROM chat_messages WHERE sender_id = ?
		)`, adminID, adminID)

	if f.WardID != nil {
		query = query.Where("ward_id = ?", *f.WardID)
	}
	if f.ZoneID != nil {
		query = query.Where("zone_id = ?", *f.ZoneID)
	}
	if f.CityCorporationCode != "" {
		query = query.Where("city_corporation_code = ?", f.CityCorporationCode)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}

	var citizens []models.User
	if err := query.Find(&citizens).Error; err != nil {
		log.Printf("ERROR: failed to load conversation candidates for admin %d: %v", adminID, err)
		return nil, err
	}
	return citizens, nil
}

// PublishEvent broadcasts a chat event over Redis Pub/Sub so every instance
// can push it to its connected WebSocket clients. A nil Redis client makes
// this a no-op (CLI tools, tests).
func (s *Service) PublishEvent(event models.ChatEvent) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, LiveChatChannel, payload).Err()
}

// SubscribeEvents opens the Pub/Sub subscription the chat hub listens on.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, LiveChatChannel)
}
