package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	user := &models.User{
		FullName:             name,
		Email:                uuid.NewString() + "@example.com",
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProvider(t *testing.T, db *gorm.DB, name string, status models.VerificationStatus) *models.Provider {
	provider := &models.Provider{
		FullName:             name,
		Email:                uuid.NewString() + "@example.com",
		ServiceType:          "plumbing",
		HourlyRate:           40,
		VerificationStatus:   status,
		IsAvailable:          true,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	require.NoError(t, db.Create(provider).Error)
	return provider
}

type sentNotification struct {
	recipient   models.ParticipantType
	recipientID string
	payload     NotificationPayload
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) SendNotification(ctx context.Context, userID string, p NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{models.ParticipantUser, userID, p})
	return f.err
}

func (f *fakeNotifier) SendNotificationToProvider(ctx context.Context, providerID string, p NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{models.ParticipantProvider, providerID, p})
	return f.err
}

func (f *fakeNotifier) Sent() []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNotification(nil), f.sent...)
}

func (f *fakeNotifier) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}
