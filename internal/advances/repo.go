package advances

import (
	"context"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
)

// ListFilter narrows advance listings.
type ListFilter struct {
	FarmerID string
	Region   string
	Month    string
}

// Repository exposes advance persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an advances repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create appends an advance to the ledger, joining tx when non-nil.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, advance *models.Advance) error {
	return r.conn(tx).WithContext(ctx).Create(advance).Error
}

// List returns the business's advances per the filter, newest date first.
func (r *Repository) List(ctx context.Context, businessID string, filter ListFilter) ([]models.Advance, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	if filter.FarmerID != "" {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.Region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", filter.Region)
	}
	if filter.Month != "" {
		query = query.Where("date LIKE ?", filter.Month+"%")
	}

	var result []models.Advance
	err := query.Order("date DESC, id DESC").Find(&result).Error
	return result, err
}
