package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Advance is a cash payout recorded against a farmer, repaid out of milk
// deliveries. Pure append-only ledger; no uniqueness constraint.
type Advance struct {
	BusinessID string          `gorm:"column:business_id;primaryKey"`
	ID         string          `gorm:"column:id;primaryKey"`
	FarmerID   string          `gorm:"column:farmer_id;not null;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Date       string          `gorm:"column:date;not null"`
	Region     *string         `gorm:"column:region"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
