package subscriptions

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// Repository exposes subscription persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscriptions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts the subscription row, joining tx when non-nil.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	return r.conn(tx).WithContext(ctx).Create(sub).Error
}

// FindByBusiness loads the single subscription owned by the business.
func (r *Repository) FindByBusiness(ctx context.Context, businessID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Save persists the full subscription row.
func (r *Repository) Save(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// UpdateStatus flips only the status column.
func (r *Repository) UpdateStatus(ctx context.Context, businessID string, status enums.SubscriptionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("business_id = ?", businessID).
		Update("status", status).Error
}

// FindPendingByAmount picks the most recently updated pending-payment
// subscription whose price is covered by the paid amount. Used by the payment
// callback when the gateway metadata carries no business reference.
func (r *Repository) FindPendingByAmount(ctx context.Context, amountPaid decimal.Decimal) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND amount <= ?", enums.SubscriptionStatusPendingPayment, amountPaid).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
