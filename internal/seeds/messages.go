package seeds

import (
	"context"
	"log"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	"gorm.io/gorm"
)

// SeedConversation starts a short chat between user and provider unless they
// already have one.
func SeedConversation(db *gorm.DB, user models.User, provider models.Provider) error {
	log.Println("💬 Seeding conversation...")
	ctx := context.Background()
	store := services.NewMessageStore(db)
	conversationID := models.ConversationID(user.ID, provider.ID)

	history, err := store.FindConversationHistory(ctx, conversationID, 1)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		return nil
	}

	start := time.Now().Add(-time.Hour)
	lines := []struct {
		fromUser bool
		text     string
	}{
		{true, "Hi! Are you available on Friday morning?"},
		{false, "Yes, 9am works. Can you send a photo of the issue?"},
		{true, "Sure, will do."},
	}
	for i, line := range lines {
		msg := &models.Message{
			ConversationID: conversationID,
			SenderID:       provider.ID,
			SenderType:     models.ParticipantProvider,
			RecipientID:    user.ID,
			RecipientType:  models.ParticipantUser,
			Text:           line.text,
			Timestamp:      start.Add(time.Duration(i) * time.Minute),
		}
		if line.fromUser {
			msg.SenderID, msg.RecipientID = user.ID, provider.ID
			msg.SenderType, msg.RecipientType = models.ParticipantUser, models.ParticipantProvider
		}
		if err := store.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
