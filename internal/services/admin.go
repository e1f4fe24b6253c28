package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"gorm.io/gorm"
)

// auditLogLimit caps one page of the admin audit log
const auditLogLimit = 100

// logAdminAction records an administrative change inside tx.
func logAdminAction(tx *gorm.DB, adminID string, action models.ActionType, targetType, targetID, reason string, details map[string]string) error {
	audit := &models.AdminAction{
		AdminID:    adminID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Reason:     reason,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(audit).Error; err != nil {
		return apperrors.Internal("Failed to record admin action", err)
	}
	return nil
}

// AdminService holds the moderation operations: provider verification,
// account suspension and announcements. Every change leaves an AdminAction.
type AdminService struct {
	db       *gorm.DB
	notifier Notifier

	dispatch func(func())
}

func NewAdminService(db *gorm.DB, notifier Notifier) *AdminService {
	return &AdminService{
		db:       db,
		notifier: notifier,
		dispatch: func(f func()) { go f() },
	}
}

// UpdateProviderStatus moves a provider between pending, verified and
// rejected. Only verified providers can be booked.
func (s *AdminService) UpdateProviderStatus(ctx context.Context, admin Actor, providerID string, status models.VerificationStatus, reason string) (*models.Provider, error) {
	if !status.IsValid() {
		return nil, apperrors.BadRequest("Invalid verification status")
	}

	var provider models.Provider
	if err := s.db.WithContext(ctx).First(&provider, "id = ?", providerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Provider not found")
		}
		return nil, apperrors.Internal("Failed to update provider status", err)
	}
	previous := provider.VerificationStatus

	fields := map[string]interface{}{
		"verification_status": status,
		"verified_at":         nil,
		"rejection_reason":    "",
	}
	switch status {
	case models.VerificationVerified:
		fields["verified_at"] = time.Now()
	case models.VerificationRejected:
		fields["rejection_reason"] = reason
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Provider{}).Where("id = ?", provider.ID).Updates(fields).Error; err != nil {
			return apperrors.Internal("Failed to update provider status", err)
		}
		return logAdminAction(tx, admin.ID, models.ActionVerifyProvider, models.TargetProvider, provider.ID, reason, map[string]string{
			"fromStatus": string(previous),
			"toStatus":   string(status),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("provider_id", provider.ID).
		Str("admin_id", admin.ID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("Provider verification status updated")

	if previous != status && status != models.VerificationPending {
		s.notifyVerification(provider.ID, status, reason)
	}

	var updated models.Provider
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", provider.ID).Error; err != nil {
		return nil, apperrors.Internal("Failed to reload provider", err)
	}
	return &updated, nil
}

func (s *AdminService) notifyVerification(providerID string, status models.VerificationStatus, reason string) {
	if s.notifier == nil {
		return
	}
	p := NotificationPayload{
		Type:  models.NotificationSystem,
		Title: "Verification Approved",
		Body:  "Your provider profile has been verified. You can now receive bookings.",
		Data:  map[string]string{"verificationStatus": string(status)},
	}
	if status == models.VerificationRejected {
		p.Title = "Verification Rejected"
		p.Body = "Your provider profile was not approved."
		if reason != "" {
			p.Body += " Reason: " + reason
		}
	}

	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.SendNotificationToProvider(ctx, providerID, p); err != nil {
			logger.Warn().Err(err).Str("provider_id", providerID).Msg("Error sending verification notification")
		}
	})
}

// SetAccountStatus suspends or reinstates a user account. Suspended accounts
// are refused at login and by AuthMiddleware on every request.
func (s *AdminService) SetAccountStatus(ctx context.Context, admin Actor, userID string, status models.AccountStatus, reason string) (*models.User, error) {
	if !status.IsValid() {
		return nil, apperrors.BadRequest("Invalid account status")
	}
	if userID == admin.ID {
		return nil, apperrors.BadRequest("You cannot change your own account status")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Failed to update account status", err)
	}
	if user.AccountStatus == status {
		return &user, nil
	}

	action := models.ActionSuspendAccount
	if status == models.AccountActive {
		action = models.ActionReinstateAccount
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("account_status", status).Error; err != nil {
			return apperrors.Internal("Failed to update account status", err)
		}
		return logAdminAction(tx, admin.ID, action, models.TargetUser, user.ID, reason, map[string]string{
			"fromStatus": string(user.AccountStatus),
			"toStatus":   string(status),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("user_id", user.ID).
		Str("admin_id", admin.ID).
		Str("status", string(status)).
		Msg("Account status updated")

	user.AccountStatus = status
	return &user, nil
}

// Announcement is an admin-authored notice fanned out to a whole audience.
type Announcement struct {
	// Audience is User, Provider or empty for both.
	Audience models.ParticipantType
	Type     models.NotificationType
	Title    string
	Body     string
}

// Announce records the announcement and queues it for every active account
// in the audience. Recipients' settings still apply, so promotions only
// reach accounts that opted in. It returns the number of recipients queued.
func (s *AdminService) Announce(ctx context.Context, admin Actor, a Announcement) (int, error) {
	if a.Type != models.NotificationSystem && a.Type != models.NotificationPromotion {
		return 0, apperrors.BadRequest("Announcement type must be system_notification or promotion")
	}
	if a.Audience != "" && !a.Audience.IsValid() {
		return 0, apperrors.BadRequest("Audience must be User, Provider or empty")
	}
	a.Title, a.Body = strings.TrimSpace(a.Title), strings.TrimSpace(a.Body)
	if a.Title == "" || a.Body == "" {
		return 0, apperrors.BadRequest("Title and message are required")
	}

	db := s.db.WithContext(ctx)
	var userIDs, providerIDs []string
	if a.Audience != models.ParticipantProvider {
		if err := db.Model(&models.User{}).Where("account_status = ?", models.AccountActive).Pluck("id", &userIDs).Error; err != nil {
			return 0, apperrors.Internal("Failed to load announcement audience", err)
		}
	}
	if a.Audience != models.ParticipantUser {
		if err := db.Model(&models.Provider{}).Pluck("id", &providerIDs).Error; err != nil {
			return 0, apperrors.Internal("Failed to load announcement audience", err)
		}
	}

	audience := string(a.Audience)
	if audience == "" {
		audience = "all"
	}
	err := logAdminAction(db, admin.ID, models.ActionSendAnnouncement, models.TargetAnnouncement, audience, a.Title, map[string]string{
		"type":       string(a.Type),
		"recipients": strconv.Itoa(len(userIDs) + len(providerIDs)),
	})
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		p := NotificationPayload{Type: a.Type, Title: a.Title, Body: a.Body}
		send := func(f func(ctx context.Context) error) bool {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			return f(ctx) == nil
		}
		s.dispatch(func() {
			failed := 0
			for _, id := range userIDs {
				id := id
				if !send(func(ctx context.Context) error { return s.notifier.SendNotification(ctx, id, p) }) {
					failed++
				}
			}
			for _, id := range providerIDs {
				id := id
				if !send(func(ctx context.Context) error { return s.notifier.SendNotificationToProvider(ctx, id, p) }) {
					failed++
				}
			}
			if failed > 0 {
				logger.Warn().Int("failed", failed).Str("title", p.Title).Msg("Some announcement notifications failed")
			}
		})
	}
	return len(userIDs) + len(providerIDs), nil
}

type AuditLogFilter struct {
	TargetType string
	TargetID   string
}

// AuditLog lists the most recent admin actions, newest first.
func (s *AdminService) AuditLog(ctx context.Context, f AuditLogFilter) ([]models.AdminAction, error) {
	query := s.db.WithContext(ctx).Preload("Admin")
	if f.TargetType != "" {
		query = query.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != "" {
		query = query.Where("target_id = ?", f.TargetID)
	}

	var actions []models.AdminAction
	if err := query.Order("created_at desc").Limit(auditLogLimit).Find(&actions).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch audit log", err)
	}
	return actions, nil
}
