package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/realtime"
)

// ServeWebSocket hands the request to the relay, which authenticates and
// upgrades it.
func ServeWebSocket(relay *realtime.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		relay.ServeHTTP(c.Writer, c.Request)
	}
}
