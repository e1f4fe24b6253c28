package seeds

import (
	"context"
	"log"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	"gorm.io/gorm"
)

// SeedBookings gives the user one booking per verified provider, walking the
// first one through the provider's side of the state machine. Bookings go
// through BookingService so seeded data obeys the same rules as live data.
func SeedBookings(db *gorm.DB, user models.User, providers []models.Provider) error {
	log.Println("📅 Seeding bookings...")
	ctx := context.Background()
	bookings := services.NewBookingService(db, nil)

	for i, provider := range providers {
		if provider.VerificationStatus != models.VerificationVerified {
			continue
		}

		var existing int64
		db.Model(&models.Booking{}).Where("user_id = ? AND provider_id = ?", user.ID, provider.ID).Count(&existing)
		if existing > 0 {
			continue
		}

		booking, err := bookings.Create(ctx, user.ID, services.CreateBookingInput{
			ProviderID:             provider.ID,
			ServiceDateTime:        time.Now().Add(time.Duration(48+24*i) * time.Hour).Truncate(time.Hour),
			ServiceLocationDetails: "221B Baker Street",
			UserNotes:              "Seeded " + provider.ServiceType + " request.",
		})
		if err != nil {
			return err
		}

		if i == 0 {
			actor := services.Actor{ID: provider.ID, Role: models.ParticipantProvider}
			if _, err := bookings.UpdateStatus(ctx, booking.ID, actor, models.BookingAccepted); err != nil {
				return err
			}
		}
		log.Printf("   ✅ Booking created with %s", provider.FullName)
	}
	return nil
}
