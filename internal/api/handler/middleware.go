package handler

import (
	"net/http"
	"strconv"

	"civicchat/backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit admits or rejects the request against the class's windows.
// Step 2 of the gateway ordering: it runs after authentication and before
// any validation or storage work. Message sends go through
// MessageLimiter, everything else through Limiter.
func (h *Handler) RateLimit(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		admitter := h.Limiter
		if class == ratelimit.ClassMessage && h.MessageLimiter != nil {
			admitter = h.MessageLimiter
		}

		res := admitter.Admit(h.limitIdentity(c), class)
		if !res.OK {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    rejectionMessage(class),
				"retryAfter": res.RetryAfter,
			})
			return
		}
		c.Next()
	}
}

// limitIdentity scopes counters to the authenticated user, or to the
// client address before authentication (the WebSocket upgrade).
func (h *Handler) limitIdentity(c *gin.Context) string {
	if userID := currentUserID(c); userID != 0 {
		return ratelimit.IdentityForUser(userID)
	}
	return "ip_" + c.ClientIP()
}

func rejectionMessage(class ratelimit.Class) string {
	if class == ratelimit.ClassMessage {
		return "Too many messages. Please wait a moment before sending more."
	}
	return "Too many requests. Please slow down."
}
