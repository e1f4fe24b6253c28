package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/realtime"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB points the database package at a fresh in-memory SQLite DB
// and a miniredis instance.
func SetupTestDB(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{
		JWTSecret:    "handlers_test_secret",
		JWTExpiresIn: time.Hour,
		HistoryLimit: 100,
		FrontendURL:  "http://localhost:3000",
	}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	database.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		database.Redis.Close()
		database.Redis = nil
		sqlDB.Close()
	})
}

func seedUser(t *testing.T, role models.Role) (*models.User, string) {
	user := &models.User{
		FullName:             "Test User",
		Email:                uuid.NewString() + "@example.com",
		Role:                 role,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	require.NoError(t, database.DB.Create(user).Error)
	token, err := utils.GenerateToken(user.ID, utils.TypeUser, string(user.Role))
	require.NoError(t, err)
	return user, token
}

func seedProvider(t *testing.T, status models.VerificationStatus) (*models.Provider, string) {
	provider := &models.Provider{
		FullName:             "Test Provider",
		Email:                uuid.NewString() + "@example.com",
		ServiceType:          "electrical",
		HourlyRate:           50,
		VerificationStatus:   status,
		IsAvailable:          true,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	require.NoError(t, database.DB.Create(provider).Error)
	token, err := utils.GenerateToken(provider.ID, utils.TypeProvider, "")
	require.NoError(t, err)
	return provider, token
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	return r
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// recordingConn stands in for a live websocket client in the registry.
type recordingConn struct {
	mu     sync.Mutex
	frames []realtime.Frame
}

func (c *recordingConn) Send(f realtime.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return true
}

func (c *recordingConn) IsOpen() bool { return true }

func (c *recordingConn) Frames() []realtime.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Frame(nil), c.frames...)
}
