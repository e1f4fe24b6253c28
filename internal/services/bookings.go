package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"gorm.io/gorm"
)

// notifyTimeout bounds a detached notification send
const notifyTimeout = 10 * time.Second

// Actor is the authenticated party operating on a booking
type Actor struct {
	ID      string
	Role    models.ParticipantType
	IsAdmin bool
}

// owns reports whether the actor is the booking's user or provider, per its role.
func (a Actor) owns(b *models.Booking) bool {
	switch a.Role {
	case models.ParticipantUser:
		return b.UserID == a.ID
	case models.ParticipantProvider:
		return b.ProviderID == a.ID
	}
	return false
}

type CreateBookingInput struct {
	ProviderID             string
	ServiceDateTime        time.Time
	ServiceLocationDetails string
	UserNotes              string
	Photos                 []string
}

type BookingListOptions struct {
	Status models.BookingStatus
	Page   int
	Limit  int
}

type BookingPage struct {
	Bookings []models.Booking `json:"bookings"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// BookingService owns booking creation and the status state machine.
type BookingService struct {
	db       *gorm.DB
	notifier Notifier

	// dispatch runs notification sends off the request path
	dispatch func(func())
}

func NewBookingService(db *gorm.DB, notifier Notifier) *BookingService {
	return &BookingService{
		db:       db,
		notifier: notifier,
		dispatch: func(f func()) { go f() },
	}
}

func (s *BookingService) load(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("User").Preload("Provider").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Booking not found")
		}
		return nil, apperrors.Internal("Failed to fetch booking", err)
	}
	return &booking, nil
}

// Create books a verified provider for userID. The booking starts pending and
// the provider is notified.
func (s *BookingService) Create(ctx context.Context, userID string, in CreateBookingInput) (*models.Booking, error) {
	if in.ProviderID == "" || in.ServiceDateTime.IsZero() {
		return nil, apperrors.BadRequest("Provider and service date/time are required.")
	}
	if err := utils.ValidateBookingPhotos(in.Photos); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	var provider models.Provider
	err := s.db.WithContext(ctx).
		Where("id = ? AND verification_status = ?", in.ProviderID, models.VerificationVerified).
		First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Provider not found or not available for booking.")
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	booking := &models.Booking{
		UserID:                 userID,
		ProviderID:             provider.ID,
		ServiceDateTime:        in.ServiceDateTime,
		ServiceLocationDetails: in.ServiceLocationDetails,
		UserNotes:              utils.SanitizeNotes(in.UserNotes),
		Photos:                 in.Photos,
		Status:                 models.BookingPending,
	}
	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	created, err := s.load(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(created)
	return created, nil
}

// Get returns a booking visible to the actor.
func (s *BookingService) Get(ctx context.Context, id string, actor Actor) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !actor.owns(booking) {
		return nil, apperrors.Forbidden("You are not authorized to view this booking.")
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID string, opts BookingListOptions) (*BookingPage, error) {
	return s.list(ctx, "user_id", userID, opts)
}

func (s *BookingService) ListForProvider(ctx context.Context, providerID string, opts BookingListOptions) (*BookingPage, error) {
	return s.list(ctx, "provider_id", providerID, opts)
}

func (s *BookingService) list(ctx context.Context, column, id string, opts BookingListOptions) (*BookingPage, error) {
	if opts.Status != "" && !opts.Status.IsValid() {
		return nil, apperrors.BadRequest("Invalid status filter.")
	}
	page, limit := normalizePage(opts.Page, opts.Limit)

	query := s.db.WithContext(ctx).Model(&models.Booking{}).Where(column+" = ?", id)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}

	var bookings []models.Booking
	err := query.Preload("User").Preload("Provider").
		Order("service_date_time desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}

	return &BookingPage{Bookings: bookings, Total: total, Page: page, Limit: limit}, nil
}

// UpdateStatus moves a booking to target on behalf of actor. Ownership is
// checked before the transition table. The write only lands if the booking
// still has the version that was read; otherwise it fails with Conflict.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID string, actor Actor, target models.BookingStatus) (*models.Booking, error) {
	if !target.IsValid() {
		return nil, apperrors.BadRequest("Invalid status provided.")
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(booking) {
		return nil, apperrors.Forbidden("You are not authorized to update this booking (not your booking).")
	}
	if !CanTransition(actor.Role, booking.Status, target) {
		return nil, apperrors.Forbidden(fmt.Sprintf("Cannot change status from %s to %s for your role.", booking.Status, target))
	}

	if err := s.compareAndSwap(ctx, booking.ID, booking.Version, map[string]interface{}{"status": target}); err != nil {
		return nil, err
	}

	updated, err := s.load(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("booking_id", updated.ID).
		Str("actor", actor.ID).
		Str("from", string(booking.Status)).
		Str("to", string(updated.Status)).
		Msg("Booking status updated")

	s.notifyStatus(updated)
	return updated, nil
}

// Reassign hands a booking to another verified provider and resets it to
// pending. The change and the audit entry naming admin are written together.
func (s *BookingService) Reassign(ctx context.Context, bookingID string, admin Actor, providerID, reason string) (*models.Booking, error) {
	if providerID == "" {
		return nil, apperrors.BadRequest("New provider ID is required")
	}
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var provider models.Provider
	err = s.db.WithContext(ctx).
		Where("id = ? AND verification_status = ?", providerID, models.VerificationVerified).
		First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Provider not found or not verified")
		}
		return nil, apperrors.Internal("Failed to reassign booking", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"provider_id": provider.ID,
			"status":      models.BookingPending,
		}
		if err := swapBooking(tx, booking.ID, booking.Version, fields); err != nil {
			return err
		}
		return logAdminAction(tx, admin.ID, models.ActionReassignBooking, models.TargetBooking, booking.ID, reason, map[string]string{
			"fromProviderId": booking.ProviderID,
			"toProviderId":   provider.ID,
			"fromStatus":     string(booking.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("booking_id", booking.ID).
		Str("admin_id", admin.ID).
		Str("provider_id", provider.ID).
		Msg("Booking reassigned")

	updated, err := s.load(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(updated)
	return updated, nil
}

// AuditTrail lists the administrative actions taken on a booking, oldest first.
func (s *BookingService) AuditTrail(ctx context.Context, bookingID string) ([]models.AdminAction, error) {
	if _, err := s.load(ctx, bookingID); err != nil {
		return nil, err
	}
	var actions []models.AdminAction
	err := s.db.WithContext(ctx).Preload("Admin").
		Where("target_type = ? AND target_id = ?", models.TargetBooking, bookingID).
		Order("created_at asc").
		Find(&actions).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch audit trail", err)
	}
	return actions, nil
}

// compareAndSwap writes fields only if the booking is still at version,
// bumping the version in the same statement.
func (s *BookingService) compareAndSwap(ctx context.Context, id string, version int, fields map[string]interface{}) error {
	return swapBooking(s.db.WithContext(ctx), id, version, fields)
}

func swapBooking(db *gorm.DB, id string, version int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = time.Now()

	result := db.Model(&models.Booking{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return apperrors.Internal("Failed to update booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("Booking was modified concurrently; reload and retry.")
	}
	return nil
}

// notifyStatus sends the one notification the booking's status calls for.
// It runs detached from the request; failures are only logged.
func (s *BookingService) notifyStatus(b *models.Booking) {
	if s.notifier == nil {
		return
	}
	recipient, payload, ok := statusNotification(b)
	if !ok {
		return
	}
	userID, providerID := b.UserID, b.ProviderID

	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		var err error
		if recipient == models.ParticipantProvider {
			err = s.notifier.SendNotificationToProvider(ctx, providerID, payload)
		} else {
			err = s.notifier.SendNotification(ctx, userID, payload)
		}
		if err != nil {
			logger.Warn().Err(err).Str("booking_id", b.ID).Str("type", string(payload.Type)).Msg("Error sending booking status notification")
		}
	})
}
