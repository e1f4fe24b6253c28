package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

func RegisterAdminRoutes(r gin.IRouter, h *handlers.AdminHandler) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.PUT("/providers/:id/status", h.UpdateProviderStatus)
		admin.PUT("/users/:id/status", h.UpdateAccountStatus)
		admin.POST("/announcements", h.Announce)
		admin.GET("/audit-logs", h.GetAuditLogs)
	}
}
