package milk

import (
	"context"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// ListFilter narrows milk listings. Month is a YYYY-MM prefix over the record
// date; the remaining fields are equality filters.
type ListFilter struct {
	FarmerID  string
	CreatedBy string
	Region    string
	Date      string
	Month     string
}

// Repository exposes milk record persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a milk repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a record, joining tx when non-nil.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, record *models.MilkRecord) error {
	return r.conn(tx).WithContext(ctx).Create(record).Error
}

// Exists reports whether an intake is already recorded for the farmer's
// session on the given date.
func (r *Repository) Exists(ctx context.Context, businessID, farmerID, date string, session enums.MilkSession) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MilkRecord{}).
		Where("business_id = ? AND farmer_id = ? AND date = ? AND session = ?",
			businessID, farmerID, date, session).
		Count(&count).Error
	return count > 0, err
}

// List returns the business's records per the filter, newest date first.
func (r *Repository) List(ctx context.Context, businessID string, filter ListFilter) ([]models.MilkRecord, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	if filter.FarmerID != "" {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", filter.Region)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Month != "" {
		query = query.Where("date LIKE ?", filter.Month+"%")
	}

	var result []models.MilkRecord
	err := query.Order("date DESC, id DESC").Find(&result).Error
	return result, err
}

// Delete removes a record within the business. Returns the rows removed.
func (r *Repository) Delete(ctx context.Context, businessID, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, id).
		Delete(&models.MilkRecord{})
	return res.RowsAffected, res.Error
}
