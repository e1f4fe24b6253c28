package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/pkg/utils"
)

func main() {
	email := flag.String("email", "", "email of the user to promote")
	demote := flag.Bool("demote", false, "revoke admin instead of granting it")
	flag.Parse()

	if *email == "" {
		log.Fatal("usage: promote_admin -email user@example.com [-demote]")
	}

	config.LoadConfig()
	database.Connect()

	normalized, err := utils.NormalizeEmail(*email)
	if err != nil {
		log.Fatalf("Invalid email %q: %v", *email, err)
	}

	var user models.User
	if err := database.DB.Where("email = ?", normalized).First(&user).Error; err != nil {
		log.Fatalf("User with email %s not found: %v", *email, err)
	}

	role := models.RoleAdmin
	if *demote {
		role = models.RoleUser
	}
	if err := database.DB.Model(&user).Update("role", role).Error; err != nil {
		log.Fatalf("Failed to update user role: %v", err)
	}

	// Existing tokens keep their old role claim until they expire
	fmt.Printf("Set role of %s (%s) to %s.\n", user.FullName, user.Email, role)
}
