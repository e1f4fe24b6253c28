package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/realtime"
)

// RegisterRealtimeRoutes mounts the websocket relay. The relay authenticates
// the connection itself so it can answer with a close frame.
func RegisterRealtimeRoutes(r gin.IRouter, relay *realtime.Relay) {
	r.GET("/ws", handlers.ServeWebSocket(relay))
}
