package handler

import (
	"errors"
	"log"
	"net/http"

	"civicchat/backend/internal/access"
	"civicchat/backend/internal/livechat"

	"github.com/gin-gonic/gin"
)

// All responses share the {success, data?|message?, error?} envelope the
// mobile app expects.

func respondOK(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, message string, data gin.H) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// respondServiceError maps service errors onto the envelope. Validation
// and access failures carry their message verbatim; anything unexpected is
// logged in full and exposed only outside production.
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, livechat.ErrEmptyContent),
		errors.Is(err, livechat.ErrContentTooLong),
		errors.Is(err, access.ErrNoAssignment):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, livechat.ErrForbidden),
		errors.Is(err, livechat.ErrNotACitizen):
		respondError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, livechat.ErrNotFound),
		errors.Is(err, access.ErrUserNotFound),
		errors.Is(err, livechat.ErrNoAdminAssigned):
		// ErrNoAdminAssigned is an expected state for unassigned citizens,
		// not a server fault, so it is not logged.
		respondError(c, http.StatusNotFound, err.Error())

	default:
		log.Printf("ERROR: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message := "Internal server error"
		if h.DevMode {
			message = err.Error()
		}
		respondError(c, http.StatusInternalServerError, message)
	}
}
