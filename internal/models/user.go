package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountSuspended
}

// NotificationSettings are the per-account opt-ins checked before a
// notification is stored or pushed.
type NotificationSettings struct {
	BookingUpdates bool `gorm:"default:true" json:"bookingUpdates"`
	ChatMessages   bool `gorm:"default:true" json:"chatMessages"`
	Ratings        bool `gorm:"default:true" json:"ratings"`
	Promotions     bool `gorm:"default:true" json:"promotions"`
}

// DefaultNotificationSettings enables every category.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{BookingUpdates: true, ChatMessages: true, Ratings: true, Promotions: true}
}

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FullName          string        `gorm:"type:text;not null" json:"fullName"`
	Email             string        `gorm:"uniqueIndex;type:text;not null" json:"email"`
	Password          string        `gorm:"type:text" json:"-"`
	PhoneNumber       string        `gorm:"type:text" json:"phoneNumber"`
	ProfilePictureURL string        `gorm:"type:text" json:"profilePictureUrl"`
	Role              Role          `gorm:"type:text;default:'user'" json:"role"`
	AccountStatus     AccountStatus `gorm:"type:text;default:'active'" json:"accountStatus"`

	FCMToken             string               `gorm:"type:text" json:"-"`
	NotificationSettings NotificationSettings `gorm:"embedded;embeddedPrefix:notify_" json:"notificationSettings"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.AccountStatus == "" {
		u.AccountStatus = AccountActive
	}
	return
}
