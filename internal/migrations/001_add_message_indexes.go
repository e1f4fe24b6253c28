package migrations

import (
	"gorm.io/gorm"
)

// Migration001AddMessageIndexes covers the chat hot paths:
// history by conversation ordered by timestamp, and unread counts per recipient.
// All indexes are idempotent (IF NOT EXISTS) for safe re-runs.
func Migration001AddMessageIndexes() Migration {
	return Migration{
		ID:   "001_add_message_indexes",
		Name: "Add conversation history and unread indexes on messages",
		Up: func(db *gorm.DB) error {
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_messages_conversation_timestamp
				ON messages (conversation_id, timestamp)`,
				`CREATE INDEX IF NOT EXISTS idx_messages_conversation_unread
				ON messages (conversation_id, recipient_id, is_read)`,
			}
			for _, stmt := range stmts {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			if err := db.Exec(`DROP INDEX IF EXISTS idx_messages_conversation_timestamp`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_messages_conversation_unread`).Error
		},
	}
}
