package models

import "time"

// Farmer is a milk supplier registered under a business. The human-readable
// id (F001, F002, ...) is only unique within its business, so the primary key
// is composite. Farmers are soft-deleted via IsActive.
type Farmer struct {
	BusinessID string    `gorm:"column:business_id;primaryKey"`
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	Phone      string    `gorm:"column:phone"`
	Region     string    `gorm:"column:region;not null;default:'Unassigned'"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
