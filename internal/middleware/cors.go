package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/config"
)

func CORSMiddleware() gin.HandlerFunc {
	origins := []string{config.AppConfig.FrontendURL}
	if config.AppConfig.Env == "development" {
		origins = append(origins, "http://localhost:3000", "http://localhost:5173")
	}

	corsConfig := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(corsConfig)
}
