package milk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/pkg/db"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// DateLayout is the canonical storage format for record dates.
const DateLayout = "2006-01-02"

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, record *models.MilkRecord) error
	Exists(ctx context.Context, businessID, farmerID, date string, session enums.MilkSession) (bool, error)
	List(ctx context.Context, businessID string, filter ListFilter) ([]models.MilkRecord, error)
	Delete(ctx context.Context, businessID, id string) (int64, error)
}

// FarmerDirectory resolves farmers so intake is only recorded against real,
// in-business suppliers.
type FarmerDirectory interface {
	FindByID(ctx context.Context, businessID, id string) (*models.Farmer, error)
}

// IDSource hands out per-business record ids.
type IDSource interface {
	NextID(ctx context.Context, tx *gorm.DB, businessID string, kind sequence.Kind) (string, error)
}

// TxRunner executes work inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements milk intake recording and retrieval.
type Service struct {
	store   Store
	farmers FarmerDirectory
	ids     IDSource
	tx      TxRunner
}

// NewService wires the milk service.
func NewService(store Store, farmers FarmerDirectory, ids IDSource, tx TxRunner) (*Service, error) {
	if store == nil || farmers == nil || ids == nil || tx == nil {
		return nil, fmt.Errorf("milk service requires store, farmer directory, id source and tx runner")
	}
	return &Service{store: store, farmers: farmers, ids: ids, tx: tx}, nil
}

// CreateInput carries an intake recording request.
type CreateInput struct {
	FarmerID string
	Date     string
	Session  string
	Litres   float64
}

// Create records one intake event. The date defaults to today; at most one
// record may exist per farmer, date and session.
func (s *Service) Create(ctx context.Context, businessID, createdBy string, input CreateInput) (*models.MilkRecord, error) {
	farmerID := strings.TrimSpace(input.FarmerID)
	if farmerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	if input.Litres <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "litres must be positive")
	}

	session, err := enums.ParseMilkSession(input.Session)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	date, err := normalizeDate(input.Date)
	if err != nil {
		return nil, err
	}

	farmer, err := s.farmers.FindByID(ctx, businessID, farmerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}

	taken, err := s.store.Exists(ctx, businessID, farmerID, date, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate intake")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("intake already recorded for %s on %s (%s)", farmerID, date, session))
	}

	var record *models.MilkRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := s.ids.NextID(ctx, tx, businessID, sequence.KindMilk)
		if err != nil {
			return err
		}
		record = &models.MilkRecord{
			BusinessID: businessID,
			ID:         id,
			FarmerID:   farmerID,
			Date:       date,
			Session:    session,
			Litres:     input.Litres,
			Region:     farmer.Region,
			CreatedBy:  createdBy,
		}
		if err := s.store.Create(ctx, tx, record); err != nil {
			// Unique index catches the race between the check and the insert.
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("intake already recorded for %s on %s (%s)", farmerID, date, session))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create milk record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Caller identifies who is listing, for role-based narrowing.
type Caller struct {
	UserID   string
	Role     enums.Role
	FarmerID string
}

// List returns the business's records per the filter. Staff only see records
// they created; farmers only see their own intake.
func (s *Service) List(ctx context.Context, businessID string, caller Caller, filter ListFilter) ([]models.MilkRecord, error) {
	switch caller.Role {
	case enums.RoleStaff:
		filter.CreatedBy = caller.UserID
	case enums.RoleFarmer:
		if caller.FarmerID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer account is not linked to a farmer")
		}
		filter.FarmerID = caller.FarmerID
	}

	result, err := s.store.List(ctx, businessID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list milk records")
	}
	return result, nil
}

// Delete removes a record within the business.
func (s *Service) Delete(ctx context.Context, businessID, id string) error {
	removed, err := s.store.Delete(ctx, businessID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete milk record")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "milk record not found")
	}
	return nil
}

func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC().Format(DateLayout), nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw))
	}
	return parsed.Format(DateLayout), nil
}
