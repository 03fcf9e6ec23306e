package models

import (
	"time"

	"github.com/google/uuid"
)

// Bar represents one beach bar listing owned by a platform user.
type Bar struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	Name             string     `gorm:"column:name;not null"`
	Description      *string    `gorm:"column:description"`
	Email            *string    `gorm:"column:email"`
	Phone            *string    `gorm:"column:phone"`
	ConnectAccountID *string    `gorm:"column:connect_account_id;index"`
	LastActiveAt     *time.Time `gorm:"column:last_active_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
