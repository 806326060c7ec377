package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// Subscription persists billing state per business. Exactly one row exists per
// business and it is owned by the business's admin account.
type Subscription struct {
	ID         uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID string                   `gorm:"column:business_id;not null;uniqueIndex"`
	Plan       enums.SubscriptionPlan   `gorm:"column:plan;not null"`
	Amount     decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	StartDate  time.Time                `gorm:"column:start_date;not null"`
	ExpiryDate time.Time                `gorm:"column:expiry_date;not null"`
	Status     enums.SubscriptionStatus `gorm:"column:status;not null;default:'trial'"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
