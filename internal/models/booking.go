package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending            BookingStatus = "pending"
	BookingAccepted           BookingStatus = "accepted"
	BookingDeclinedByProvider BookingStatus = "declined_by_provider"
	BookingCancelledByUser    BookingStatus = "cancelled_by_user"
	BookingInProgress         BookingStatus = "in_progress"
	BookingCompleted          BookingStatus = "completed"

	// Reserved for payment integration; no transition reaches them yet.
	BookingPaymentDue BookingStatus = "payment_due"
	BookingPaid       BookingStatus = "paid"
)

// BookingStatuses lists every status a booking may hold
var BookingStatuses = []BookingStatus{
	BookingPending,
	BookingAccepted,
	BookingDeclinedByProvider,
	BookingCancelledByUser,
	BookingInProgress,
	BookingCompleted,
	BookingPaymentDue,
	BookingPaid,
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID     string    `gorm:"index;type:text;not null" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProviderID string    `gorm:"index;type:text;not null" json:"providerId"`
	Provider   *Provider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`

	ServiceDateTime        time.Time `gorm:"not null" json:"serviceDateTime"`
	ServiceLocationDetails string    `gorm:"type:text" json:"serviceLocationDetails"`
	UserNotes              string    `gorm:"type:text" json:"userNotes"`
	Photos                 []string  `gorm:"type:text;serializer:json" json:"photos"`

	Status BookingStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`

	// Version is bumped on every status write and compared before the next one.
	Version int `gorm:"not null;default:1" json:"version"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	if b.Version == 0 {
		b.Version = 1
	}
	if b.Photos == nil {
		b.Photos = []string{}
	}
	return
}
