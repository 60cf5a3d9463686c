package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

// Profile tracks a user's tier and how many essays they have had marked. The
// ID is the user ID issued by the auth provider.
type Profile struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	SubscriptionTier SubscriptionTier `gorm:"not null;default:'free'" json:"subscription_tier"`
	EssaysUsed       int              `gorm:"not null;default:0" json:"essays_used"`
	CreatedAt        time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
