package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"gorm.io/gorm"
)

type CreateRatingInput struct {
	ProviderID string
	BookingID  string
	Score      int
	Review     string
}

type RatingPage struct {
	Ratings       []models.Rating `json:"ratings"`
	CurrentPage   int             `json:"currentPage"`
	TotalPages    int             `json:"totalPages"`
	TotalRatings  int64           `json:"totalRatings"`
	AverageRating *float64        `json:"averageRating,omitempty"`
}

// RatingService records reviews of completed bookings and keeps each
// provider's average in step.
type RatingService struct {
	db       *gorm.DB
	notifier Notifier

	dispatch func(func())
}

func NewRatingService(db *gorm.DB, notifier Notifier) *RatingService {
	return &RatingService{
		db:       db,
		notifier: notifier,
		dispatch: func(f func()) { go f() },
	}
}

// Create rates the provider of one of userID's completed bookings.
func (s *RatingService) Create(ctx context.Context, userID string, in CreateRatingInput) (*models.Rating, error) {
	if in.ProviderID == "" || in.BookingID == "" || in.Score == 0 {
		return nil, apperrors.BadRequest("Provider ID, booking ID, and rating are required")
	}
	if in.Score < models.MinRatingScore || in.Score > models.MaxRatingScore {
		return nil, apperrors.BadRequest(fmt.Sprintf("Rating must be between %d and %d", models.MinRatingScore, models.MaxRatingScore))
	}

	db := s.db.WithContext(ctx)

	var provider models.Provider
	if err := db.Select("id").First(&provider, "id = ?", in.ProviderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Provider not found")
		}
		return nil, apperrors.Internal("Failed to create rating", err)
	}

	var booking models.Booking
	if err := db.Preload("User").First(&booking, "id = ?", in.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Booking not found")
		}
		return nil, apperrors.Internal("Failed to create rating", err)
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("You can only rate your own bookings")
	}
	if booking.ProviderID != in.ProviderID {
		return nil, apperrors.BadRequest("This booking is not for the specified provider")
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperrors.BadRequest("You can only rate completed bookings")
	}

	rated, err := s.HasRated(ctx, booking.ID, userID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, apperrors.BadRequest("You have already rated this booking")
	}

	rating := &models.Rating{
		BookingID:  booking.ID,
		UserID:     userID,
		ProviderID: in.ProviderID,
		Score:      in.Score,
		Review:     utils.SanitizeNotes(in.Review),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return err
		}
		return refreshProviderRating(tx, in.ProviderID)
	})
	if err != nil {
		// the unique booking index catches a concurrent duplicate
		if rated, _ := s.HasRated(ctx, booking.ID, userID); rated {
			return nil, apperrors.BadRequest("You have already rated this booking")
		}
		return nil, apperrors.Internal("Failed to create rating", err)
	}

	logger.Info().
		Str("rating_id", rating.ID).
		Str("booking_id", booking.ID).
		Str("provider_id", in.ProviderID).
		Int("score", rating.Score).
		Msg("Rating created")

	userName := "A customer"
	if booking.User != nil && booking.User.FullName != "" {
		userName = booking.User.FullName
	}
	s.notifyProvider(rating, userName)
	return rating, nil
}

// refreshProviderRating recomputes the provider's average and count from its ratings.
func refreshProviderRating(tx *gorm.DB, providerID string) error {
	var stats struct {
		Average float64
		Total   int64
	}
	err := tx.Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS total").
		Where("provider_id = ?", providerID).
		Scan(&stats).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Provider{}).Where("id = ?", providerID).Updates(map[string]interface{}{
		"average_rating": math.Round(stats.Average*100) / 100,
		"total_ratings":  stats.Total,
	}).Error
}

func (s *RatingService) notifyProvider(r *models.Rating, userName string) {
	if s.notifier == nil {
		return
	}
	p := NotificationPayload{
		Type:      models.NotificationNewRating,
		Title:     "New Rating",
		Body:      fmt.Sprintf("%s rated your service %d out of %d.", userName, r.Score, models.MaxRatingScore),
		BookingID: r.BookingID,
		Data: map[string]string{
			"ratingId":  r.ID,
			"bookingId": r.BookingID,
			"rating":    strconv.Itoa(r.Score),
		},
	}
	providerID := r.ProviderID

	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.SendNotificationToProvider(ctx, providerID, p); err != nil {
			logger.Warn().Err(err).Str("rating_id", r.ID).Msg("Error sending rating notification")
		}
	})
}

// HasRated reports whether userID already rated the booking.
func (s *RatingService) HasRated(ctx context.Context, bookingID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Where("booking_id = ? AND user_id = ?", bookingID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Internal("Failed to check rating", err)
	}
	return count > 0, nil
}

// ListForProvider returns a provider's ratings, newest first, with its average.
func (s *RatingService) ListForProvider(ctx context.Context, providerID string, page, limit int) (*RatingPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Rating{}).Where("provider_id = ?", providerID)
	result, err := s.page(query, page, limit, func(q *gorm.DB) *gorm.DB {
		return q.Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "profile_picture_url")
		})
	})
	if err != nil {
		return nil, err
	}

	var provider models.Provider
	average := 0.0
	if err := s.db.WithContext(ctx).Select("id", "average_rating").First(&provider, "id = ?", providerID).Error; err == nil {
		average = provider.AverageRating
	}
	result.AverageRating = &average
	return result, nil
}

// ListForUser returns the ratings userID has written, newest first.
func (s *RatingService) ListForUser(ctx context.Context, userID string, page, limit int) (*RatingPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Rating{}).Where("user_id = ?", userID)
	return s.page(query, page, limit, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Provider").Preload("Booking")
	})
}

func (s *RatingService) page(query *gorm.DB, page, limit int, preload func(*gorm.DB) *gorm.DB) (*RatingPage, error) {
	page, limit = normalizePage(page, limit)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch ratings", err)
	}

	var ratings []models.Rating
	err := preload(query).Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&ratings).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch ratings", err)
	}

	return &RatingPage{
		Ratings:      ratings,
		CurrentPage:  page,
		TotalPages:   int((total + int64(limit) - 1) / int64(limit)),
		TotalRatings: total,
	}, nil
}
