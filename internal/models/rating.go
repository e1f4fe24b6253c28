package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating score bounds
const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is a user's review of the provider that completed one of their
// bookings. A booking is rated at most once.
type Rating struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	BookingID  string    `gorm:"uniqueIndex;type:text;not null" json:"bookingId"`
	Booking    *Booking  `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	UserID     string    `gorm:"index;type:text;not null" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProviderID string    `gorm:"index;type:text;not null" json:"providerId"`
	Provider   *Provider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`

	Score  int    `gorm:"not null" json:"rating"`
	Review string `gorm:"type:text" json:"review"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
