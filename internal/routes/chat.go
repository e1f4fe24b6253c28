package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

// Gin requires one wildcard name per segment and method, so the GET routes
// share :id. It is the other participant for history and the conversation
// id for unread counts.
func RegisterChatRoutes(r gin.IRouter, h *handlers.ChatHandler) {
	chats := r.Group("/chats")
	chats.Use(middleware.AuthMiddleware())
	{
		chats.GET("", h.GetConversations)
		chats.GET("/presence/:participantId", h.GetPresence)
		chats.GET("/:id", h.GetHistory)
		chats.GET("/:id/unread-count", h.GetUnreadCount)
		chats.PATCH("/:conversationId/read", h.MarkRead)
		chats.DELETE("/messages/:messageId", h.DeleteMessage)
		chats.DELETE("/:conversationId", h.DeleteConversation)
		chats.POST("/:recipientId/images", middleware.ChatRateLimit(), h.SendImages)
	}
}
