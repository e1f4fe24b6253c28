package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Provider is a service professional that accepts and fulfils bookings
type Provider struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FullName           string             `gorm:"type:text;not null" json:"fullName"`
	Email              string             `gorm:"uniqueIndex;type:text;not null" json:"email"`
	Password           string             `gorm:"type:text" json:"-"`
	PhoneNumber        string             `gorm:"type:text" json:"phoneNumber"`
	ProfilePictureURL  string             `gorm:"type:text" json:"profilePictureUrl"`
	ServiceType        string             `gorm:"type:text;index" json:"serviceType"`
	ServiceDescription string             `gorm:"type:text" json:"serviceDescription"`
	HourlyRate         float64            `json:"hourlyRate"`
	VerificationStatus VerificationStatus `gorm:"type:text;default:'pending';index" json:"verificationStatus"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty"`
	RejectionReason    string             `gorm:"type:text" json:"rejectionReason,omitempty"`
	IsAvailable        bool               `gorm:"default:true" json:"isAvailable"`

	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`

	FCMToken             string               `gorm:"type:text" json:"-"`
	NotificationSettings NotificationSettings `gorm:"embedded;embeddedPrefix:notify_" json:"notificationSettings"`
}

// IsValid reports whether s is one of the moderation states.
func (s VerificationStatus) IsValid() bool {
	return s == VerificationPending || s == VerificationVerified || s == VerificationRejected
}

func (p *Provider) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = VerificationPending
	}
	return
}
