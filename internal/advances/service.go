package advances

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, advance *models.Advance) error
	List(ctx context.Context, businessID string, filter ListFilter) ([]models.Advance, error)
}

// FarmerDirectory resolves farmers so advances are only issued to real,
// in-business suppliers.
type FarmerDirectory interface {
	FindByID(ctx context.Context, businessID, id string) (*models.Farmer, error)
}

// IDSource hands out per-business advance ids.
type IDSource interface {
	NextID(ctx context.Context, tx *gorm.DB, businessID string, kind sequence.Kind) (string, error)
}

// TxRunner executes work inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements the cash-advance ledger.
type Service struct {
	store   Store
	farmers FarmerDirectory
	ids     IDSource
	tx      TxRunner
}

// NewService wires the advances service.
func NewService(store Store, farmers FarmerDirectory, ids IDSource, tx TxRunner) (*Service, error) {
	if store == nil || farmers == nil || ids == nil || tx == nil {
		return nil, fmt.Errorf("advances service requires store, farmer directory, id source and tx runner")
	}
	return &Service{store: store, farmers: farmers, ids: ids, tx: tx}, nil
}

// CreateInput carries a payout request.
type CreateInput struct {
	FarmerID string
	Amount   decimal.Decimal
	Date     string
}

// Create appends a payout to the ledger. The date defaults to today and the
// region snapshot is taken from the farmer at issue time.
func (s *Service) Create(ctx context.Context, businessID string, input CreateInput) (*models.Advance, error) {
	farmerID := strings.TrimSpace(input.FarmerID)
	if farmerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}

	farmer, err := s.farmers.FindByID(ctx, businessID, farmerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}

	var advance *models.Advance
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := s.ids.NextID(ctx, tx, businessID, sequence.KindAdvance)
		if err != nil {
			return err
		}
		region := farmer.Region
		advance = &models.Advance{
			BusinessID: businessID,
			ID:         id,
			FarmerID:   farmerID,
			Amount:     input.Amount,
			Date:       date,
			Region:     &region,
		}
		if err := s.store.Create(ctx, tx, advance); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create advance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advance, nil
}

// Caller identifies who is listing, for role-based narrowing.
type Caller struct {
	Role     enums.Role
	FarmerID string
}

// List returns the business's advances. Farmers only see their own payouts.
func (s *Service) List(ctx context.Context, businessID string, caller Caller, filter ListFilter) ([]models.Advance, error) {
	if caller.Role == enums.RoleFarmer {
		if caller.FarmerID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer account is not linked to a farmer")
		}
		filter.FarmerID = caller.FarmerID
	}

	result, err := s.store.List(ctx, businessID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list advances")
	}
	return result, nil
}

// ListForFarmer returns one farmer's payout history.
func (s *Service) ListForFarmer(ctx context.Context, businessID, farmerID string, caller Caller) ([]models.Advance, error) {
	if caller.Role == enums.RoleFarmer && caller.FarmerID != farmerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmers may only view their own advances")
	}
	return s.List(ctx, businessID, caller, ListFilter{FarmerID: farmerID})
}
