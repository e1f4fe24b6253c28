package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionReassignBooking  ActionType = "REASSIGN_BOOKING"
	ActionVerifyProvider   ActionType = "VERIFY_PROVIDER"
	ActionSuspendAccount   ActionType = "SUSPEND_ACCOUNT"
	ActionReinstateAccount ActionType = "REINSTATE_ACCOUNT"
	ActionSendAnnouncement ActionType = "SEND_ANNOUNCEMENT"
)

// Audit target kinds
const (
	TargetBooking      = "booking"
	TargetProvider     = "provider"
	TargetUser         = "user"
	TargetAnnouncement = "announcement"
)

// AdminAction records an administrative change made outside the normal
// participant flows.
type AdminAction struct {
	ID         string            `gorm:"primaryKey;type:text" json:"id"`
	AdminID    string            `gorm:"index;type:text;not null" json:"adminId"`
	Action     ActionType        `gorm:"type:text;not null" json:"action"`
	TargetID   string            `gorm:"index;type:text;not null" json:"targetId"`
	TargetType string            `gorm:"type:text;not null" json:"targetType"`
	Reason     string            `gorm:"type:text" json:"reason"`
	Details    map[string]string `gorm:"type:text;serializer:json" json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`

	Admin *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

func (a *AdminAction) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}
