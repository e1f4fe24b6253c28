package main

import (
	"log"

	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/seeds"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("🔄 Running migrations (just in case)...")
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	log.Println("👤 Seeding accounts...")
	user, err := seeds.GetOrCreateUser(database.DB, "Demo User", "user@example.com", models.RoleUser)
	if err != nil {
		log.Fatalf("❌ Failed to seed user: %v", err)
	}
	if _, err := seeds.GetOrCreateUser(database.DB, "Demo Admin", "admin@example.com", models.RoleAdmin); err != nil {
		log.Fatalf("❌ Failed to seed admin: %v", err)
	}

	providers, err := seeds.SeedProviders(database.DB)
	if err != nil {
		log.Fatalf("❌ Failed to seed providers: %v", err)
	}

	if err := seeds.SeedBookings(database.DB, user, providers); err != nil {
		log.Fatalf("❌ Failed to seed bookings: %v", err)
	}
	if err := seeds.SeedConversation(database.DB, user, providers[0]); err != nil {
		log.Fatalf("❌ Failed to seed conversation: %v", err)
	}

	log.Printf("✅ Seeding complete. Accounts use password %q", seeds.DemoPassword)
}
