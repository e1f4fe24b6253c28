package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/migrations"
)

func main() {
	rollback := flag.Int("rollback", 0, "number of applied migrations to revert, newest first")
	flag.Parse()

	config.LoadConfig()
	database.Connect()

	migrator := migrations.NewMigrator(database.DB)

	if *rollback > 0 {
		for i := 0; i < *rollback; i++ {
			if err := migrator.Rollback(); err != nil {
				log.Fatalf("Rollback %d of %d failed: %v", i+1, *rollback, err)
			}
		}
		fmt.Printf("Rolled back %d migration(s).\n", *rollback)
		return
	}

	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Auto-migration failed: %v", err)
	}
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	fmt.Println("Schema is up to date.")
}
