package farmers

import (
	"context"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
)

// ListFilter narrows farmer listings. Active defaults to active-only when nil.
type ListFilter struct {
	Region string
	Active *bool
}

// Repository exposes farmer persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a farmers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a farmer, joining tx when non-nil.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, farmer *models.Farmer) error {
	return r.conn(tx).WithContext(ctx).Create(farmer).Error
}

// FindByID loads one farmer within the business, active or not.
func (r *Repository) FindByID(ctx context.Context, businessID, id string) (*models.Farmer, error) {
	var farmer models.Farmer
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		First(&farmer).Error
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

// List returns the business's farmers, filtered and ordered by id.
func (r *Repository) List(ctx context.Context, businessID string, filter ListFilter) ([]models.Farmer, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	active := true
	if filter.Active != nil {
		active = *filter.Active
	}
	query = query.Where("is_active = ?", active)
	if filter.Region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", filter.Region)
	}

	var result []models.Farmer
	err := query.Order("id ASC").Find(&result).Error
	return result, err
}

// ListNames maps every farmer id in the business to its name, inactive
// farmers included so historical reports keep resolving.
func (r *Repository) ListNames(ctx context.Context, businessID string) (map[string]string, error) {
	var rows []models.Farmer
	err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("business_id = ?", businessID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// Update applies the changed columns to a farmer row.
func (r *Repository) Update(ctx context.Context, businessID, id string, changes map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Farmer{}).
		Where("business_id = ? AND id = ?", businessID, id).
		Updates(changes)
	return res.RowsAffected, res.Error
}

// Deactivate soft-deletes the farmer so history keeps resolving.
func (r *Repository) Deactivate(ctx context.Context, businessID, id string) (int64, error) {
	return r.Update(ctx, businessID, id, map[string]any{"is_active": false})
}
