package handler

import (
	"net/http"
	"strconv"

	"civicchat/backend/internal/config"
	"civicchat/backend/internal/livechat"
	"civicchat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
	VoiceURL string `json:"voiceUrl"`
}

// GetCitizenThread returns one page of the citizen's conversation with
// their resolved administrator, plus the administrator summary the app
// renders in the chat header. No resolvable administrator yields an empty
// thread and a null admin, not an error.
func (h *Handler) GetCitizenThread(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", config.DefaultThreadLimit)

	thread, admin, err := h.Service.GetCitizenThread(currentUserID(c), page, limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"messages": thread.Messages,
		"admin":    adminSummary(admin),
		"pagination": gin.H{
			"page":    thread.Page,
			"limit":   thread.Limit,
			"total":   thread.Total,
			"hasMore": thread.HasMore,
		},
	})
}

// SendCitizenMessage is the citizen send path. Auth and rate limiting have
// already run as middleware; validation and resolution happen in the
// service, in that order.
func (h *Handler) SendCitizenMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.Service.SendCitizenMessage(currentUserID(c), livechat.MessageInput{
		Content:  req.Message,
		FileURL:  req.ImageURL,
		VoiceURL: req.VoiceURL,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondCreated(c, "Message sent successfully", gin.H{"message": msg})
}

// MarkCitizenRead acknowledges every administrator->citizen message.
// Idempotent; repeating it reports zero updates.
func (h *Handler) MarkCitizenRead(c *gin.Context) {
	updated, err := h.Service.MarkCitizenRead(currentUserID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": updated})
}

// GetUnreadCount serves both the citizen and admin unread badges.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	count, err := h.Service.UnreadCount(currentUserID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"count": count})
}

// GetThrottleStatus reports the caller's message-window usage so the app
// can disable the send button before hitting 429s.
func (h *Handler) GetThrottleStatus(c *gin.Context) {
	if h.StatusReporter == nil {
		respondOK(c, gin.H{})
		return
	}
	identity := h.limitIdentity(c)
	respondOK(c, gin.H{"windows": h.StatusReporter.Status(identity)})
}

// adminSummary shapes the assigned-administrator block of the thread
// response. Returns nil (JSON null) for an unresolved administrator.
func adminSummary(admin *models.User) gin.H {
	if admin == nil {
		return nil
	}
	return gin.H{
		"id":          admin.ID,
		"name":        admin.FullName(),
		"avatar":      admin.Avatar,
		"role":        admin.Role,
		"designation": admin.Designation,
		"phone":       admin.Phone,
		"wardId":      admin.WardID,
		"zoneId":      admin.ZoneID,
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
