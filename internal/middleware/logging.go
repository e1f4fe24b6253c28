package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/pkg/logger"
)

// LoggingMiddleware logs all incoming requests with timing
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := redactQuery(c.Request.URL.Query())

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		participantID, participantType := Participant(c)

		event := logger.Log.Info()
		if path == "/health" {
			event = logger.Log.Debug()
		}
		if status >= 400 {
			event = logger.Log.Warn()
		}
		if status >= 500 {
			event = logger.Log.Error()
		}

		event.
			Str("method", method).
			Str("path", path).
			Str("query", rawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", clientIP).
			Str("user_agent", userAgent).
			Str("participant_id", participantID).
			Str("participant_type", string(participantType)).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}

// redactQuery hides credentials the websocket endpoint accepts in the query string.
func redactQuery(values url.Values) string {
	for _, key := range []string{"token", "auth_token"} {
		if values.Has(key) {
			values.Set(key, "REDACTED")
		}
	}
	return values.Encode()
}
