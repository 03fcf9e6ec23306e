package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/playabars/playabars-backend/pkg/enums"
)

// Subscription persists Stripe subscription state per platform user. Rows are
// keyed by the provider's subscription id so replayed webhook events upsert
// instead of duplicating.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;unique"`
	Tier                 string                   `gorm:"column:tier;not null"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     time.Time                `gorm:"column:current_period_end"`
	BookingsUsed         int                      `gorm:"column:bookings_used;not null;default:0"`
	Version              int64                    `gorm:"column:version;not null;default:0"`
	Metadata             json.RawMessage          `gorm:"column:metadata"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
