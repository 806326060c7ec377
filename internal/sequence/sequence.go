package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// Kind selects which per-business counter an id is drawn from.
type Kind string

const (
	KindFarmer  Kind = "farmer"
	KindMilk    Kind = "milk"
	KindAdvance Kind = "advance"
)

// Repository hands out dense per-business ids. The increment is a single
// upsert so two concurrent writers in the same business can never observe the
// same value.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sequence repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Next increments and returns the counter for (businessID, kind). When tx is
// non-nil the increment joins the caller's transaction so the id is released
// on rollback.
func (r *Repository) Next(ctx context.Context, tx *gorm.DB, businessID string, kind Kind) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}

	var value int64
	err := conn.WithContext(ctx).Raw(
		`INSERT INTO sequences (business_id, kind, value) VALUES (?, ?, 1)
		 ON CONFLICT (business_id, kind) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		businessID, string(kind),
	).Scan(&value).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment sequence")
	}
	return value, nil
}

// NextID returns the next formatted human-readable id for the kind.
func (r *Repository) NextID(ctx context.Context, tx *gorm.DB, businessID string, kind Kind) (string, error) {
	value, err := r.Next(ctx, tx, businessID, kind)
	if err != nil {
		return "", err
	}
	return FormatID(kind, value), nil
}

// FormatID renders a counter value in the id scheme callers and spreadsheets
// expect: F001, M0001, A0001.
func FormatID(kind Kind, value int64) string {
	switch kind {
	case KindFarmer:
		return fmt.Sprintf("F%03d", value)
	case KindMilk:
		return fmt.Sprintf("M%04d", value)
	case KindAdvance:
		return fmt.Sprintf("A%04d", value)
	}
	return fmt.Sprintf("X%04d", value)
}
