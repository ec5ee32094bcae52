package models

import "gorm.io/gorm"

// MessageType indicates the kind of content a chat message carries.
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeVoice MessageType = "VOICE"
)

// SenderType records which side of a conversation produced a message.
type SenderType string

const (
	SenderCitizen SenderType = "CITIZEN"
	SenderAdmin   SenderType = "ADMIN"
)

// ChatMessage is one immutable row of a citizen/administrator thread.
// The embedded gorm.Model provides the message ID and CreatedAt; the
// conversation a message belongs to is derived from the unordered
// {SenderID, ReceiverID} pair, there is no conversation table.
// IsRead is the only field that ever changes, and only false -> true.
type ChatMessage struct {
	gorm.Model

	Content  string      `gorm:"type:text;not null" json:"content"`
	Type     MessageType `gorm:"type:text;not null;default:TEXT" json:"type"`
	FileURL  string      `gorm:"type:text" json:"fileUrl,omitempty"`
	VoiceURL string      `gorm:"type:text" json:"voiceUrl,omitempty"`

	SenderID   uint       `gorm:"not null;index:idx_chat_pair" json:"senderId"`
	ReceiverID uint       `gorm:"not null;index:idx_chat_pair" json:"receiverId"`
	SenderType SenderType `gorm:"type:text;not null" json:"senderType"`

	IsRead bool `gorm:"not null;default:false;index" json:"isRead"`
}
