package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/model"
)

func (h *Handler) listNotifications(c *gin.Context) {
	principal := middleware.MustPrincipal(c)

	filter := model.NotificationFilter{
		Type:     model.NotificationType(c.Query("type")),
		Priority: model.NotificationPriority(c.Query("priority")),
	}
	if raw := c.Query("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "isRead must be a boolean"})
			return
		}
		filter.IsRead = &isRead
	}

	number, limit, _, _ := pageQuery(c)
	notifications, total, err := h.notifications.List(c.Request.Context(), principal, filter, number, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	listResponse(c, "notifications", notifications, total, number, limit)
}

func (h *Handler) unreadCount(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

func (h *Handler) clearOldNotifications(c *gin.Context) {
	principal := middleware.MustPrincipal(c)
	deleted, err := h.notifications.ClearOld(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
