package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

func RegisterNotificationRoutes(r gin.IRouter, h *handlers.NotificationHandler) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PATCH("/read-all", h.MarkAllAsRead)
		notifications.PATCH("/:id/read", h.MarkAsRead)
		notifications.DELETE("/:id", h.DeleteNotification)

		notifications.PUT("/fcm-token", h.UpdateFCMToken)
		notifications.DELETE("/fcm-token", h.RemoveFCMToken)
		notifications.GET("/settings", h.GetSettings)
		notifications.PUT("/settings", h.UpdateSettings)
	}
}
