package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

func RegisterBookingRoutes(r gin.IRouter, h *handlers.BookingHandler) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware())
	{
		bookings.POST("", middleware.RequireUser(), h.Create)
		bookings.GET("/user", middleware.RequireUser(), h.ListForUser)
		bookings.GET("/provider", middleware.RequireProvider(), h.ListForProvider)
		bookings.GET("/:id", h.Get)
		bookings.PATCH("/:id/status", h.UpdateStatus)
		bookings.PATCH("/:id/reassign", middleware.AdminMiddleware(), h.Reassign)
		bookings.GET("/:id/audit", middleware.AdminMiddleware(), h.AuditTrail)
	}
}
