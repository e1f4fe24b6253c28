package handlers

import (
	"net/http"
	"testing"

	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	SetupTestDB(t)
	registry := realtime.NewRegistry()
	registry.Register("someone", &recordingConn{})

	r := newRouter()
	r.GET("/health", HealthCheck(registry))

	w := doJSON(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"ok"},"connections":1}`, w.Body.String())

	redisClient := database.Redis
	database.Redis = nil
	defer func() { database.Redis = redisClient }()

	w = doJSON(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"not configured"`)
}

func TestHealthCheckReportsUnreachableRedis(t *testing.T) {
	SetupTestDB(t)
	require.NoError(t, database.Redis.Close())

	r := newRouter()
	r.GET("/health", HealthCheck(realtime.NewRegistry()))

	w := doJSON(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
