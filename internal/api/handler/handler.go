// Package handler is the HTTP gateway. It owns the invariant ordering of
// the send path: authentication, then rate limiting, then content
// validation, then access resolution, then persistence. Over-limit and
// unauthorized traffic never reaches storage.
package handler

import (
	"civicchat/backend/internal/chathub"
	"civicchat/backend/internal/livechat"
	"civicchat/backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// Handler bundles the gateway's dependencies.
type Handler struct {
	Service *livechat.Service
	Hub     *chathub.ManagerService
	Limiter ratelimit.Admitter

	// MessageLimiter may differ from Limiter in distributed deployments
	// (Redis-backed for the API class, in-process for message windows).
	MessageLimiter ratelimit.Admitter

	JWTSecret []byte
	DevMode   bool

	// StatusReporter exposes window usage on the throttle-status endpoint;
	// only the in-memory limiter implements it.
	StatusReporter *ratelimit.Limiter
}

// NewHandler wires the gateway. limiter throttles generic API traffic,
// messageLimiter throttles sends; pass the same limiter twice for a
// single-instance deployment.
func NewHandler(svc *livechat.Service, hub *chathub.ManagerService, limiter, messageLimiter ratelimit.Admitter, jwtSecret []byte, devMode bool) *Handler {
	return &Handler{
		Service:        svc,
		Hub:            hub,
		Limiter:        limiter,
		MessageLimiter: messageLimiter,
		JWTSecret:      jwtSecret,
		DevMode:        devMode,
	}
}

// RegisterRoutes attaches the live-chat surface to the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	citizen := r.Group("/api/live-chat", h.RequireAuth)
	{
		citizen.GET("", h.RateLimit(ratelimit.ClassAPI), h.GetCitizenThread)
		citizen.POST("", h.RateLimit(ratelimit.ClassMessage), h.SendCitizenMessage)
		citizen.PATCH("/read", h.RateLimit(ratelimit.ClassAPI), h.MarkCitizenRead)
		citizen.GET("/unread", h.RateLimit(ratelimit.ClassAPI), h.GetUnreadCount)
		citizen.GET("/throttle-status", h.RateLimit(ratelimit.ClassAPI), h.GetThrottleStatus)
	}

	admin := r.Group("/api/admin/live-chat", h.RequireAuth, h.RequireAdmin)
	{
		admin.GET("", h.RateLimit(ratelimit.ClassAPI), h.ListConversations)
		admin.GET("/statistics", h.RateLimit(ratelimit.ClassAPI), h.GetStatistics)
		admin.GET("/unread", h.RateLimit(ratelimit.ClassAPI), h.GetUnreadCount)
		admin.GET("/:userId", h.RateLimit(ratelimit.ClassAPI), h.GetAdminThread)
		admin.POST("/:userId", h.RateLimit(ratelimit.ClassMessage), h.SendAdminMessage)
		admin.PATCH("/:userId/read", h.RateLimit(ratelimit.ClassAPI), h.MarkAdminThreadRead)
	}

	r.GET("/ws", h.RateLimit(ratelimit.ClassStrict), h.ServeWebSocket)
}
