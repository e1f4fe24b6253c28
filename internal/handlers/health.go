package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/realtime"
)

// HealthCheck reports database and redis reachability. Redis being absent
// is not a degradation since every redis feature falls back to local state.
func HealthCheck(registry *realtime.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if database.DB == nil || database.Ping(database.DB) != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		if database.Redis != nil {
			if err := database.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		code := http.StatusOK
		if dbStatus != "ok" || redisStatus == "error" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
			"connections": registry.Len(),
		})
	}
}
