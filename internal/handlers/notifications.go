package handlers

import (
	"net/http"

	"github.com/corclo/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "50"), 50)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	items, err := h.notifications.List(userID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// GetUnreadCount returns the caller's unread notification count
// GET /api/v1/notifications/unread
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(userID)
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkNotificationsRead marks all of the caller's notifications read.
// Idempotent.
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(userID); err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"read": true})
}
