package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetNotifications GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	me, _ := middleware.Participant(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.notifications.List(c.Request.Context(), me, services.NotificationListOptions{
		Page:       page,
		Limit:      limit,
		UnreadOnly: c.Query("unreadOnly") == "true",
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUnreadCount GET /notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	me, _ := middleware.Participant(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkAsRead PATCH /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	me, _ := middleware.Participant(c)
	n, err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification": n})
}

// MarkAllAsRead PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	me, _ := middleware.Participant(c)
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "modifiedCount": updated})
}

// DeleteNotification DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	me, _ := middleware.Participant(c)
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id"), me); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

type deviceTokenInput struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

// UpdateFCMToken PUT /notifications/fcm-token
func (h *NotificationHandler) UpdateFCMToken(c *gin.Context) {
	var input deviceTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("FCM token is required"))
		return
	}
	me, model := middleware.Participant(c)
	if err := h.notifications.SetDeviceToken(c.Request.Context(), model, me, input.FCMToken); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated successfully"})
}

// RemoveFCMToken DELETE /notifications/fcm-token
func (h *NotificationHandler) RemoveFCMToken(c *gin.Context) {
	me, model := middleware.Participant(c)
	if err := h.notifications.SetDeviceToken(c.Request.Context(), model, me, ""); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
}

// GetSettings GET /notifications/settings
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	me, model := middleware.Participant(c)
	settings, err := h.notifications.Settings(c.Request.Context(), model, me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notificationSettings": settings})
}

// Omitted fields keep their enabled default.
type settingsInput struct {
	NotificationSettings struct {
		BookingUpdates *bool `json:"bookingUpdates"`
		ChatMessages   *bool `json:"chatMessages"`
		Ratings        *bool `json:"ratings"`
		Promotions     *bool `json:"promotions"`
	} `json:"notificationSettings"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// UpdateSettings PUT /notifications/settings
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	var input settingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Invalid notification settings"))
		return
	}
	in := input.NotificationSettings
	settings := models.NotificationSettings{
		BookingUpdates: boolOr(in.BookingUpdates, true),
		ChatMessages:   boolOr(in.ChatMessages, true),
		Ratings:        boolOr(in.Ratings, true),
		Promotions:     boolOr(in.Promotions, true),
	}

	me, model := middleware.Participant(c)
	updated, err := h.notifications.UpdateSettings(c.Request.Context(), model, me, settings)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":              "Notification settings updated successfully",
		"notificationSettings": updated,
	})
}
