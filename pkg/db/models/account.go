package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// Account represents the canonical identity entity. Admin accounts own their
// business's subscription; staff and farmer accounts reference the admin's
// business via BusinessID.
type Account struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"column:role;not null"`
	BusinessID   string     `gorm:"column:business_id;not null;index"`
	FarmerID     *string    `gorm:"column:farmer_id"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
