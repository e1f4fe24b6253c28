package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantType names the account collection a participant lives in
type ParticipantType string

const (
	ParticipantUser     ParticipantType = "User"
	ParticipantProvider ParticipantType = "Provider"
)

// IsValid reports whether t is User or Provider.
func (t ParticipantType) IsValid() bool {
	return t == ParticipantUser || t == ParticipantProvider
}

// Other returns the opposite role in the two-sided marketplace.
func (t ParticipantType) Other() ParticipantType {
	if t == ParticipantUser {
		return ParticipantProvider
	}
	return ParticipantUser
}

// ParticipantTypeFromClaim maps a token "type" claim (user|provider) to a ParticipantType.
func ParticipantTypeFromClaim(claim string) (ParticipantType, bool) {
	switch claim {
	case "user":
		return ParticipantUser, true
	case "provider":
		return ParticipantProvider, true
	}
	return "", false
}

type MessageType string

const (
	MessageText          MessageType = "text"
	MessageImage         MessageType = "image"
	MessageBookingImages MessageType = "booking_images"
)

func (t MessageType) IsValid() bool {
	return t == MessageText || t == MessageImage || t == MessageBookingImages
}

// ConversationID derives the conversation key shared by two participants.
// The ids are sorted, so ConversationID(a, b) == ConversationID(b, a).
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// Message is one chat message between a user and a provider
type Message struct {
	ID             string `gorm:"primaryKey;type:text" json:"id"`
	ConversationID string `gorm:"index;type:text;not null" json:"conversationId"`

	SenderID      string          `gorm:"index;type:text;not null" json:"senderId"`
	SenderType    ParticipantType `gorm:"type:text;not null" json:"senderType"`
	RecipientID   string          `gorm:"index;type:text;not null" json:"recipientId"`
	RecipientType ParticipantType `gorm:"type:text;not null" json:"recipientType"`

	MessageType MessageType `gorm:"type:text;not null;default:'text'" json:"messageType"`
	Text        string      `gorm:"type:text" json:"text"`
	Images      []string    `gorm:"type:text;serializer:json" json:"images"`

	Timestamp time.Time  `gorm:"index;not null" json:"timestamp"`
	IsRead    bool       `gorm:"default:false" json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrTextRequired       = errors.New("text is required for this message type")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidParticipant = errors.New("sender and recipient must be identified with a User or Provider type")
)

// Validate checks the message shape before it is stored. Text is required
// for text messages and for image messages that carry no images.
func (m *Message) Validate() error {
	if !m.MessageType.IsValid() {
		return ErrInvalidMessageType
	}
	if m.ConversationID == "" || m.SenderID == "" || m.RecipientID == "" ||
		!m.SenderType.IsValid() || !m.RecipientType.IsValid() {
		return ErrInvalidParticipant
	}
	if strings.TrimSpace(m.Text) == "" {
		if m.MessageType == MessageText || (m.MessageType == MessageImage && len(m.Images) == 0) {
			return ErrTextRequired
		}
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MessageType == "" {
		m.MessageType = MessageText
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	if m.Images == nil {
		m.Images = []string{}
	}
	return m.Validate()
}

// MessagePayload is the form of a message pushed over the realtime channel.
// It leaves out the database id and the bookkeeping timestamps.
type MessagePayload struct {
	ConversationID string          `json:"conversationId"`
	SenderID       string          `json:"senderId"`
	SenderType     ParticipantType `json:"senderType"`
	RecipientID    string          `json:"recipientId"`
	RecipientType  ParticipantType `json:"recipientType"`
	MessageType    MessageType     `json:"messageType"`
	Text           string          `json:"text"`
	Images         []string        `json:"images"`
	Timestamp      string          `json:"timestamp"`
	IsRead         bool            `json:"isRead"`
}

func (m *Message) Payload() MessagePayload {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return MessagePayload{
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderType:     m.SenderType,
		RecipientID:    m.RecipientID,
		RecipientType:  m.RecipientType,
		MessageType:    m.MessageType,
		Text:           m.Text,
		Images:         images,
		Timestamp:      m.Timestamp.UTC().Format(time.RFC3339Nano),
		IsRead:         m.IsRead,
	}
}
