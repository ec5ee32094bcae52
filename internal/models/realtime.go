package models

// Event kinds published on the Redis live-chat channel and pushed to
// WebSocket clients.
const (
	EventMessage = "message"
	EventRead    = "read"
)

// ChatEvent is the wire payload for real-time delivery. For EventMessage
// the Message field carries the persisted row; for EventRead it is nil and
// the ids describe whose messages were acknowledged.
type ChatEvent struct {
	Kind       string       `json:"kind"`
	SenderID   uint         `json:"sender_id"`
	ReceiverID uint         `json:"receiver_id"`
	Message    *ChatMessage `json:"message,omitempty"`
}
