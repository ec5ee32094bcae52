package chathub

import (
	"encoding/json"
	"log"

	"civicchat/backend/internal/models"
	"civicchat/backend/internal/storage"
)

// RedisEventSource adapts the storage Pub/Sub subscription to the hub's
// EventSource interface, decoding payloads off the live-chat channel.
type RedisEventSource struct {
	Storage *storage.Service
}

// NewRedisEventSource wraps the storage service's subscription.
func NewRedisEventSource(s *storage.Service) *RedisEventSource {
	return &RedisEventSource{Storage: s}
}

// Events subscribes and decodes until the subscription dies. Malformed
// payloads are logged and skipped, they never stop the stream.
func (r *RedisEventSource) Events() <-chan models.ChatEvent {
	out := make(chan models.ChatEvent, 64)

	go func() {
		defer close(out)

		pubsub := r.Storage.SubscribeEvents()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var event models.ChatEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("chathub: bad event payload on %s: %v", storage.LiveChatChannel, err)
				continue
			}
			out <- event
		}
	}()

	return out
}
