package handler

import (
	"log"
	"net/http"

	"civicchat/backend/internal/chathub"
	"civicchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the app origins once the mobile build pins its
	// production hostnames.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers it with the hub so
// the client receives chat events live. The token is validated here rather
// than by RequireAuth because browsers cannot attach headers to upgrade
// requests; ?token= is accepted for that reason.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, _, ok := h.parseToken(tokenString)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Printf("ws: upgrade failed for user %d: %v", userID, err)
		return
	}

	client := &chathub.WebSocketClient{
		UserID: userID,
		ConnID: uuid.New().String(),
		Conn:   conn,
		Hub:    h.Hub,
		Send:   make(chan models.ChatEvent, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
