package models

import (
	"time"

	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// MilkRecord captures one intake event for a farmer. At most one record may
// exist per (business, farmer, date, session); the unique index is the
// storage-level backstop for the service-level duplicate check.
type MilkRecord struct {
	BusinessID string            `gorm:"column:business_id;primaryKey;uniqueIndex:idx_milk_business_farmer_date_session"`
	ID         string            `gorm:"column:id;primaryKey"`
	FarmerID   string            `gorm:"column:farmer_id;not null;uniqueIndex:idx_milk_business_farmer_date_session"`
	Date       string            `gorm:"column:date;not null;uniqueIndex:idx_milk_business_farmer_date_session"`
	Session    enums.MilkSession `gorm:"column:session;not null;uniqueIndex:idx_milk_business_farmer_date_session"`
	Litres     float64           `gorm:"column:litres;not null"`
	Region     string            `gorm:"column:region;not null;default:'Unassigned'"`
	CreatedBy  string            `gorm:"column:created_by;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
