package handlers

import (
	"net/http"

	"github.com/andresuchdata/farmrisk/internal/service"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	dispatcher *service.NotificationDispatcher
}

func NewNotificationHandler(dispatcher *service.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		respondError(c, err, "invalid user id")
		return
	}
	page, limit, err := pageParams(c)
	if err != nil {
		respondError(c, err, "invalid pagination")
		return
	}
	unreadOnly, err := optionalBool(c, "unread_only")
	if err != nil {
		respondError(c, err, "invalid unread_only")
		return
	}

	result, err := h.dispatcher.ListNotifications(c.Request.Context(), userID, unreadOnly != nil && *unreadOnly, page, limit)
	if err != nil {
		respondError(c, err, "failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		respondError(c, err, "invalid user id")
		return
	}
	notificationID, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "invalid notification id")
		return
	}

	notification, err := h.dispatcher.MarkNotificationRead(c.Request.Context(), userID, notificationID)
	if err != nil {
		respondError(c, err, "failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, notification)
}
