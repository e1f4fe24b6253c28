package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "booking_created"
	NotificationBookingAccepted  NotificationType = "booking_accepted"
	NotificationBookingDeclined  NotificationType = "booking_declined"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingStarted   NotificationType = "booking_started"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationNewMessage       NotificationType = "new_message"
	NotificationNewRating        NotificationType = "new_rating"
	NotificationSystem           NotificationType = "system_notification"
	NotificationPromotion        NotificationType = "promotion"
)

// Category returns the settings group a notification type belongs to.
func (t NotificationType) Category() string {
	switch t {
	case NotificationBookingCreated, NotificationBookingAccepted, NotificationBookingDeclined,
		NotificationBookingCancelled, NotificationBookingStarted, NotificationBookingCompleted:
		return "bookingUpdates"
	case NotificationNewMessage:
		return "chatMessages"
	case NotificationNewRating:
		return "ratings"
	case NotificationPromotion:
		return "promotions"
	}
	return ""
}

// Allows reports whether settings permit a notification of type t.
func (s NotificationSettings) Allows(t NotificationType) bool {
	switch t.Category() {
	case "bookingUpdates":
		return s.BookingUpdates
	case "chatMessages":
		return s.ChatMessages
	case "ratings":
		return s.Ratings
	case "promotions":
		return s.Promotions
	}
	return true
}

type Notification struct {
	ID             string           `gorm:"primaryKey;type:text" json:"id"`
	RecipientID    string           `gorm:"index;type:text;not null" json:"recipient"`
	RecipientModel ParticipantType  `gorm:"type:text;not null" json:"recipientModel"`
	Type           NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title          string           `gorm:"type:text;not null" json:"title"`
	Message        string           `gorm:"type:text;not null" json:"message"`

	RelatedBookingID *string `gorm:"index;type:text" json:"relatedBooking,omitempty"`
	RelatedMessageID *string `gorm:"type:text" json:"relatedMessage,omitempty"`

	Data map[string]string `gorm:"type:text;serializer:json" json:"data,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return
}
