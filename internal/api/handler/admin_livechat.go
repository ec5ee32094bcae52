package handler

import (
	"net/http"
	"strconv"

	"civicchat/backend/internal/config"
	"civicchat/backend/internal/livechat"

	"github.com/gin-gonic/gin"
)

// ListConversations is the administrator inbox: every citizen conversation
// in the admin's jurisdiction, newest activity first. Geography query
// parameters narrow the view; the jurisdiction clause itself comes from
// the admin's own role and cannot be widened from the outside.
func (h *Handler) ListConversations(c *gin.Context) {
	filters := livechat.InboxFilters{
		Page:                intQuery(c, "page", 1),
		Limit:               intQuery(c, "limit", config.DefaultInboxLimit),
		UnreadOnly:          c.Query("unreadOnly") == "true",
		Search:              c.Query("search"),
		CityCorporationCode: c.Query("cityCorporationCode"),
		WardID:              uintQuery(c, "wardId"),
		ZoneID:              uintQuery(c, "zoneId"),
	}

	inbox, err := h.Service.ListConversations(currentUserID(c), filters)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"conversations": inbox.Conversations,
		"pagination": gin.H{
			"page":    inbox.Page,
			"limit":   inbox.Limit,
			"total":   inbox.Total,
			"hasMore": inbox.HasMore,
		},
	})
}

// GetAdminThread returns one page of the thread with a specific citizen,
// gated by the jurisdiction check.
func (h *Handler) GetAdminThread(c *gin.Context) {
	citizenID, ok := pathUserID(c)
	if !ok {
		return
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", config.DefaultThreadLimit)

	thread, citizen, err := h.Service.GetAdminThread(currentUserID(c), citizenID, page, limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"messages": thread.Messages,
		"user": gin.H{
			"id":     citizen.ID,
			"name":   citizen.FullName(),
			"phone":  citizen.Phone,
			"avatar": citizen.Avatar,
			"wardId": citizen.WardID,
			"zoneId": citizen.ZoneID,
		},
		"pagination": gin.H{
			"page":    thread.Page,
			"limit":   thread.Limit,
			"total":   thread.Total,
			"hasMore": thread.HasMore,
		},
	})
}

// SendAdminMessage is the administrator send path; CheckAccess runs in the
// service before anything is persisted.
func (h *Handler) SendAdminMessage(c *gin.Context) {
	citizenID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.Service.SendAdminMessage(currentUserID(c), citizenID, livechat.MessageInput{
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

// MarkAdminThreadRead acknowledges the citizen->admin direction of one
// thread.
func (h *Handler) MarkAdminThreadRead(c *gin.Context) {
	citizenID, ok := pathUserID(c)
	if !ok {
		return
	}

	updated, err := h.Service.MarkAdminThreadRead(currentUserID(c), citizenID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": updated})
}

// GetStatistics serves the jurisdiction dashboard numbers.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.Service.GetStatistics(currentUserID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"statistics": stats})
}

func pathUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return uint(id), true
}

func uintQuery(c *gin.Context, name string) *uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
