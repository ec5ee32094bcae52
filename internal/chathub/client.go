package chathub

import "civicchat/backend/internal/models"

// Client is one live connection able to receive chat events. The hub only
// sees this interface, so tests (and future transports) can register
// anything that drains a channel.
type Client interface {
	// GetUserID returns the numeric id of the authenticated user behind
	// the connection.
	GetUserID() uint
	// GetConnID distinguishes multiple connections of the same user
	// (phone + browser tab).
	GetConnID() string

	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.ChatEvent

	// Run starts the connection's read and write pumps.
	Run()
	// Close shuts the connection down and releases its channel.
	Close()
}
