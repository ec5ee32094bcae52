// Package chathub fans live-chat events out to connected WebSocket
// clients. Persistence happens in the livechat service; the hub only
// delivers what the Redis Pub/Sub channel announces, so every instance of
// the server pushes the same events to its own connections.
package chathub

import (
	"log"
	"sync"

	"civicchat/backend/internal/models"
)

// EventSource is the subscription half the hub needs from storage.
type EventSource interface {
	// Events delivers decoded chat events until the source closes.
	Events() <-chan models.ChatEvent
}

// ManagerService tracks live connections per user and dispatches events.
// Handlers register/unregister through the channels; the mutex covers the
// Clients map so IsOnline can be read outside the Run goroutine.
type ManagerService struct {
	mu sync.RWMutex
	// Clients maps user id -> connection id -> client. A user may hold
	// several simultaneous connections.
	Clients map[uint]map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.ChatEvent

	source EventSource
}

// NewManagerService creates a hub reading events from the given source.
func NewManagerService(source EventSource) *ManagerService {
	return &ManagerService{
		Clients:      make(map[uint]map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.ChatEvent, 64),
		source:       source,
	}
}

// Run is the hub's dispatch loop.
func (m *ManagerService) Run() {
	var events <-chan models.ChatEvent
	if m.source != nil {
		events = m.source.Events()
	}

	for {
		select {
		case client := <-m.RegisterCh:
			m.Register(client)

		case client := <-m.UnregisterCh:
			m.Unregister(client)

		case event := <-m.BroadcastCh:
			m.Dispatch(event)

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.Dispatch(event)
		}
	}
}

// Register adds a connection for its user.
func (m *ManagerService) Register(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.Clients[client.GetUserID()]
	if !ok {
		conns = make(map[string]Client)
		m.Clients[client.GetUserID()] = conns
	}
	conns[client.GetConnID()] = client
	log.Printf("chathub: user %d connected (%s), %d connection(s)", client.GetUserID(), client.GetConnID(), len(conns))
}

// Unregister removes a connection and closes it. Unknown clients are
// ignored, so a double unregister is harmless.
func (m *ManagerService) Unregister(client Client) {
	m.mu.Lock()
	conns, ok := m.Clients[client.GetUserID()]
	if ok {
		if _, ok = conns[client.GetConnID()]; ok {
			delete(conns, client.GetConnID())
			if len(conns) == 0 {
				delete(m.Clients, client.GetUserID())
			}
		}
	}
	m.mu.Unlock()

	if ok {
		client.Close()
		log.Printf("chathub: user %d disconnected (%s)", client.GetUserID(), client.GetConnID())
	}
}

// Dispatch pushes the event to every connection of both participants. A
// client whose send buffer is full is dropped rather than allowed to stall
// delivery.
func (m *ManagerService) Dispatch(event models.ChatEvent) {
	var slow []Client

	targets := []uint{event.SenderID}
	if event.ReceiverID != event.SenderID {
		targets = append(targets, event.ReceiverID)
	}

	m.mu.RLock()
	for _, userID := range targets {
		for _, client := range m.Clients[userID] {
			select {
			case client.GetSendChannel() <- event:
			default:
				slow = append(slow, client)
			}
		}
	}
	m.mu.RUnlock()

	for _, client := range slow {
		log.Printf("chathub: dropping slow client for user %d", client.GetUserID())
		m.Unregister(client)
	}
}

// IsOnline reports whether the user has at least one live connection.
func (m *ManagerService) IsOnline(userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients[userID]) > 0
}
