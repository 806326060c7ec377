package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// Repository exposes account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a new account. When tx is non-nil the insert joins the
// caller's transaction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	return r.conn(tx).WithContext(ctx).Create(account).Error
}

// FindByUsername retrieves the account matching the provided username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAdminByBusiness loads the admin account owning the business subscription.
func (r *Repository) FindAdminByBusiness(ctx context.Context, businessID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND role = ?", businessID, enums.RoleAdmin).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListByBusiness returns every account in the business.
func (r *Repository) ListByBusiness(ctx context.Context, businessID string) ([]models.Account, error) {
	var result []models.Account
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at ASC").
		Find(&result).Error
	return result, err
}

// UsernameExists reports whether any account already uses the username. When
// tx is non-nil the check reads through the caller's transaction so bulk
// imports see their own uncommitted rows.
func (r *Repository) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// DeleteByID removes an account, scoped by business so a caller can never
// delete outside its tenant. Returns the number of rows removed.
func (r *Repository) DeleteByID(ctx context.Context, businessID string, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", id, businessID).
		Delete(&models.Account{})
	return res.RowsAffected, res.Error
}
