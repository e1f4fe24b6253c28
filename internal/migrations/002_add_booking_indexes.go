package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddBookingIndexes speeds up the per-party booking lists
// (filtered by status) and the notification inbox.
func Migration002AddBookingIndexes() Migration {
	return Migration{
		ID:        "002_add_booking_indexes",
		Name:      "Add booking list and notification inbox indexes",
		DependsOn: []string{"001_add_message_indexes"},
		Up: func(db *gorm.DB) error {
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_bookings_user_status ON bookings (user_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_provider_status ON bookings (provider_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications (recipient_id, created_at)`,
			}
			for _, stmt := range stmts {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			for _, idx := range []string{
				"idx_bookings_user_status",
				"idx_bookings_provider_status",
				"idx_notifications_recipient_created",
			} {
				if err := db.Exec("DROP INDEX IF EXISTS " + idx).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
