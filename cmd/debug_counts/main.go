package main

import (
	"fmt"
	"log"

	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/models"
)

// Prints row counts per table and the booking status distribution.
func main() {
	config.LoadConfig()
	database.Connect()

	for _, m := range database.Models() {
		var count int64
		if err := database.DB.Model(m).Count(&count).Error; err != nil {
			log.Fatalf("Failed to count %T: %v", m, err)
		}
		fmt.Printf("%-22T %d\n", m, count)
	}

	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	database.DB.Model(&models.Booking{}).Select("status, count(*) as count").Group("status").Scan(&rows)
	fmt.Println("\nBookings by status:")
	for _, r := range rows {
		fmt.Printf("  %-22s %d\n", r.Status, r.Count)
	}

	var unread int64
	database.DB.Model(&models.Message{}).Where("is_read = ?", false).Count(&unread)
	fmt.Printf("\nUnread messages: %d\n", unread)
}
