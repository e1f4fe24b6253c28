package services

import (
	"context"
	"errors"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"gorm.io/gorm"
)

// MaxHistoryLimit caps one conversation history page
const MaxHistoryLimit = 100

// MessageStore is the durable chat history, keyed by conversation id
type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Save validates and persists msg, filling in its id and timestamp.
func (s *MessageStore) Save(ctx context.Context, msg *models.Message) error {
	if msg.MessageType == "" {
		msg.MessageType = models.MessageText
	}

	if err := utils.ValidateMessageText(msg.Text); err != nil {
		return apperrors.BadRequest(err.Error())
	}

	if err := utils.ValidateImageRefs(msg.Images); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if err := msg.Validate(); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return apperrors.Internal("Failed to store message", err)
	}
	return nil
}

// FindByID returns a single message
func (s *MessageStore) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Message not found.")
		}
		return nil, apperrors.Internal("Failed to fetch message", err)
	}
	return &msg, nil
}

// FindConversationHistory returns the newest limit messages of a
// conversation, oldest first. limit is clamped to MaxHistoryLimit.
func (s *MessageStore) FindConversationHistory(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp desc").
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch chat history", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flags every unread message addressed to recipientID in the
// conversation as read and returns how many changed.
func (s *MessageStore) MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error) {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return 0, apperrors.Internal("Failed to mark messages as read", result.Error)
	}
	return result.RowsAffected, nil
}

// UnreadCount counts unread messages addressed to recipientID in the conversation
func (s *MessageStore) UnreadCount(ctx context.Context, conversationID, recipientID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Internal("Failed to get unread count", err)
	}
	return count, nil
}

// DeleteMessage removes a message. Only its sender may delete it.
func (s *MessageStore) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return apperrors.Forbidden("You can only delete your own messages.")
	}
	if err := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", messageID).Error; err != nil {
		return apperrors.Internal("Failed to delete message", err)
	}
	return nil
}

// DeleteConversation removes every message of a conversation the requester
// takes part in and returns the number removed.
func (s *MessageStore) DeleteConversation(ctx context.Context, conversationID, requesterID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("sender_id = ? OR recipient_id = ?", requesterID, requesterID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Internal("Failed to delete conversation", err)
	}
	if count == 0 {
		return 0, apperrors.NotFound("Conversation not found or you are not part of this conversation")
	}

	result := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Delete(&models.Message{})
	if result.Error != nil {
		return 0, apperrors.Internal("Failed to delete conversation", result.Error)
	}
	return result.RowsAffected, nil
}

// ConversationSummary is one entry of a participant's inbox
type ConversationSummary struct {
	ConversationID      string                 `json:"conversationId"`
	PartnerID           string                 `json:"partnerId"`
	PartnerType         models.ParticipantType `json:"partnerType"`
	PartnerName         string                 `json:"partnerName"`
	PartnerPicture      string                 `json:"partnerProfilePictureUrl"`
	LastMessage         string                 `json:"lastMessage"`
	LastMessageType     models.MessageType     `json:"lastMessageType"`
	LastMessageTime     time.Time              `json:"lastMessageTime"`
	LastMessageSenderID string                 `json:"lastMessageSenderId"`
	UnreadCount         int64                  `json:"unreadCount"`
}

type participantCard struct {
	ID                string
	FullName          string
	ProfilePictureURL string
}

// ListConversations returns the participant's conversations, most recent first.
func (s *MessageStore) ListConversations(ctx context.Context, participantID string) ([]ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	// newest message time per conversation the participant is part of
	latest := db.Model(&models.Message{}).
		Select("conversation_id, MAX(timestamp) AS last_at").
		Where("sender_id = ? OR recipient_id = ?", participantID, participantID).
		Group("conversation_id")

	var messages []models.Message
	err := db.Table("messages AS m").
		Select("m.*").
		Joins("JOIN (?) AS latest ON latest.conversation_id = m.conversation_id AND latest.last_at = m.timestamp", latest).
		Order("m.timestamp desc").
		Order("m.created_at desc").
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch conversations", err)
	}

	var unread []struct {
		ConversationID string
		Unread         int64
	}
	err = db.Model(&models.Message{}).
		Select("conversation_id, count(*) as unread").
		Where("recipient_id = ? AND is_read = ?", participantID, false).
		Group("conversation_id").
		Scan(&unread).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch conversations", err)
	}
	unreadBy := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadBy[u.ConversationID] = u.Unread
	}

	seen := make(map[string]bool)
	summaries := make([]ConversationSummary, 0)
	partners := map[models.ParticipantType][]string{}
	for _, m := range messages {
		if seen[m.ConversationID] {
			continue
		}
		seen[m.ConversationID] = true

		partnerID, partnerType := m.RecipientID, m.RecipientType
		if m.RecipientID == participantID {
			partnerID, partnerType = m.SenderID, m.SenderType
		}
		partners[partnerType] = append(partners[partnerType], partnerID)

		summaries = append(summaries, ConversationSummary{
			ConversationID:      m.ConversationID,
			PartnerID:           partnerID,
			PartnerType:         partnerType,
			LastMessage:         m.Text,
			LastMessageType:     m.MessageType,
			LastMessageTime:     m.Timestamp,
			LastMessageSenderID: m.SenderID,
			UnreadCount:         unreadBy[m.ConversationID],
		})
	}

	cards := map[string]participantCard{}
	for partnerType, ids := range partners {
		var found []participantCard
		var model interface{} = &models.User{}
		if partnerType == models.ParticipantProvider {
			model = &models.Provider{}
		}
		if err := db.Model(model).Select("id, full_name, profile_picture_url").Where("id IN ?", ids).Scan(&found).Error; err != nil {
			return nil, apperrors.Internal("Failed to fetch conversations", err)
		}
		for _, c := range found {
			cards[string(partnerType)+":"+c.ID] = c
		}
	}
	for i := range summaries {
		if card, ok := cards[string(summaries[i].PartnerType)+":"+summaries[i].PartnerID]; ok {
			summaries[i].PartnerName = card.FullName
			summaries[i].PartnerPicture = card.ProfilePictureURL
		} else {
			summaries[i].PartnerName = "Unknown " + string(summaries[i].PartnerType)
		}
	}

	return summaries, nil
}
