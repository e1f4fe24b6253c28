package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter) {
	users := r.Group("/users")
	{
		users.POST("/register", handlers.RegisterUser)
		users.POST("/login", handlers.LoginUser)
	}

	providers := r.Group("/providers")
	{
		providers.POST("/register", handlers.RegisterProvider)
		providers.POST("/login", handlers.LoginProvider)
	}

	// Needs the claims to revoke the token
	r.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
}
