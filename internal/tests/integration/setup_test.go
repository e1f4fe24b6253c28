package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jo-service/marketplace-backend/internal/app"
	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/migrations"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Set TEST_DATABASE_URL to run against a disposable PostgreSQL database
// instead of in-memory SQLite. Its tables are dropped before each test.
const postgresEnv = "TEST_DATABASE_URL"

func setupTestDB(t *testing.T) *gorm.DB {
	var dialector gorm.Dialector
	if dsn := os.Getenv(postgresEnv); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open("file::memory:")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)

	if dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		require.NoError(t, db.Migrator().DropTable(append(database.Models(), &migrations.MigrationRecord{})...))
	}

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, migrations.NewMigrator(db).Run())

	database.DB = db
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type testServer struct {
	app    *app.App
	server *httptest.Server
	db     *gorm.DB
}

func startServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{
		Env:          "test",
		JWTSecret:    "integration_test_secret",
		JWTExpiresIn: time.Hour,
		PresenceTTL:  time.Minute,
		HistoryLimit: 100,
		FrontendURL:  "http://localhost:3000",
	}

	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	database.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	a := app.New(config.AppConfig, db, database.Redis)
	server := httptest.NewServer(a.Router)

	t.Cleanup(func() {
		a.Shutdown()
		server.Close()
		database.Redis.Close()
		database.Redis = nil
	})
	return &testServer{app: a, server: server, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// account registers through the API and returns its id and token.
func (s *testServer) register(t *testing.T, kind string, body map[string]interface{}) (string, string) {
	t.Helper()
	status, resp := s.do(t, http.MethodPost, "/api/auth/"+kind+"s/register", "", body)
	require.Equal(t, http.StatusCreated, status, resp)
	account, ok := resp[kind].(map[string]interface{})
	require.True(t, ok, resp)
	return account["id"].(string), resp["token"].(string)
}
