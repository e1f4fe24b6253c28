package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAdminRouter mounts the admin routes next to booking creation and a
// plain authenticated endpoint.
func newAdminRouter() *gin.Engine {
	r := newBookingRouter()

	h := NewAdminHandler(services.NewAdminService(database.DB, nil))
	g := r.Group("/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	g.PUT("/providers/:id/status", h.UpdateProviderStatus)
	g.PUT("/users/:id/status", h.UpdateAccountStatus)
	g.POST("/announcements", h.Announce)
	g.GET("/audit-logs", h.GetAuditLogs)
	return r
}

func TestAdminVerifiesProvider(t *testing.T) {
	SetupTestDB(t)
	r := newAdminRouter()
	_, userToken := seedUser(t, "")
	_, adminToken := seedUser(t, models.RoleAdmin)
	provider, providerToken := seedProvider(t, models.VerificationPending)
	path := "/admin/providers/" + provider.ID + "/status"

	booking := gin.H{
		"providerId":      provider.ID,
		"serviceDateTime": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
	w := doJSON(r, http.MethodPost, "/bookings", userToken, booking)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, path, userToken, gin.H{"status": "verified"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodPut, path, providerToken, gin.H{"status": "verified"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPut, path, adminToken, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodPut, "/admin/providers/missing/status", adminToken, gin.H{"status": "verified"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, path, adminToken, gin.H{"status": "verified"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Provider models.Provider `json:"provider"`
	}
	decode(t, w, &resp)
	assert.Equal(t, models.VerificationVerified, resp.Provider.VerificationStatus)

	w = doJSON(r, http.MethodPost, "/bookings", userToken, booking)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/admin/audit-logs?targetType=provider&targetId="+provider.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs struct {
		Logs []models.AdminAction `json:"logs"`
	}
	decode(t, w, &logs)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, models.ActionVerifyProvider, logs.Logs[0].Action)
}

func TestAdminSuspendsAccount(t *testing.T) {
	SetupTestDB(t)
	r := newAdminRouter()
	user, userToken := seedUser(t, "")
	admin, adminToken := seedUser(t, models.RoleAdmin)
	path := "/admin/users/" + user.ID + "/status"

	w := doJSON(r, http.MethodGet, "/bookings/user", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPut, path, adminToken, gin.H{"status": "suspended", "reason": "abuse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/bookings/user", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPut, "/admin/users/"+admin.ID+"/status", adminToken, gin.H{"status": "suspended"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, path, adminToken, gin.H{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/bookings/user", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAnnouncement(t *testing.T) {
	SetupTestDB(t)
	r := newAdminRouter()
	seedUser(t, "")
	seedProvider(t, models.VerificationVerified)
	_, adminToken := seedUser(t, models.RoleAdmin)

	w := doJSON(r, http.MethodPost, "/admin/announcements", adminToken, gin.H{
		"audience": "Provider",
		"type":     "system_notification",
		"title":    "New payout schedule",
		"message":  "Payouts now run weekly.",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp struct {
		Recipients int `json:"recipients"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Recipients)

	w = doJSON(r, http.MethodPost, "/admin/announcements", adminToken, gin.H{"type": "booking_created", "title": "x", "message": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
