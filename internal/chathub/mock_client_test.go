package chathub_test

import (
	"civicchat/backend/internal/models"
)

// mockClient is an in-memory Client with a buffered send channel.
type mockClient struct {
	userID uint
	connID string
	send   chan models.ChatEvent
	closed bool
}

func newMockClient(userID uint, connID string) *mockClient {
	return &mockClient{
		userID: userID,
		connID: connID,
		send:   make(chan models.ChatEvent, 8),
	}
}

func (m *mockClient) GetUserID() uint                         { return m.userID }
func (m *mockClient) GetConnID() string                       { return m.connID }
func (m *mockClient) GetSendChannel() chan<- models.ChatEvent { return m.send }
func (m *mockClient) Run()                                    {}
func (m *mockClient) Close()                                  { m.closed = true }

// drain returns every event currently buffered for the client.
func (m *mockClient) drain() []models.ChatEvent {
	var events []models.ChatEvent
	for {
		select {
		case ev := <-m.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}
