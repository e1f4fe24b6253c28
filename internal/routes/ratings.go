package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

func RegisterRatingRoutes(r gin.IRouter, h *handlers.RatingHandler) {
	ratings := r.Group("/ratings")
	ratings.Use(middleware.AuthMiddleware())
	{
		ratings.POST("/provider", middleware.RequireUser(), h.Create)
		ratings.GET("/check/:bookingId", middleware.RequireUser(), h.Check)
		ratings.GET("/provider/:providerId", h.ForProvider)
		ratings.GET("/user", middleware.RequireUser(), h.Mine)
	}
}
