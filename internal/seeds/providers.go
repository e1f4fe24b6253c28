package seeds

import (
	"errors"
	"log"

	"github.com/jo-service/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

type providerSeed struct {
	FullName    string
	Email       string
	ServiceType string
	Description string
	HourlyRate  float64
	Status      models.VerificationStatus
}

var demoProviders = []providerSeed{
	{"Pat Plumber", "plumber@example.com", "plumbing", "Leaks, installs and emergency repairs", 45, models.VerificationVerified},
	{"Ellie Sparks", "electrician@example.com", "electrical", "Wiring, lighting and panel upgrades", 55, models.VerificationVerified},
	{"Cody Clean", "cleaner@example.com", "cleaning", "Deep cleans and move-out cleaning", 30, models.VerificationPending},
}

// SeedProviders creates the demo providers that do not exist yet. Only the
// verified ones can be booked.
func SeedProviders(db *gorm.DB) ([]models.Provider, error) {
	log.Println("🧰 Seeding providers...")

	hash, err := hashDemoPassword()
	if err != nil {
		return nil, err
	}

	providers := make([]models.Provider, 0, len(demoProviders))
	for _, seed := range demoProviders {
		var provider models.Provider
		err := db.Where("email = ?", seed.Email).First(&provider).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			provider = models.Provider{
				FullName:             seed.FullName,
				Email:                seed.Email,
				Password:             hash,
				ServiceType:          seed.ServiceType,
				ServiceDescription:   seed.Description,
				HourlyRate:           seed.HourlyRate,
				VerificationStatus:   seed.Status,
				IsAvailable:          true,
				NotificationSettings: models.DefaultNotificationSettings(),
			}
			if err := db.Create(&provider).Error; err != nil {
				return nil, err
			}
			log.Printf("   ✅ Provider created: %s (%s)", provider.Email, provider.VerificationStatus)
		} else if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}
