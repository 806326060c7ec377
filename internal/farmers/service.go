package farmers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/internal/accounts"
	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// DefaultRegion is assigned when a farmer is registered without one.
const DefaultRegion = "Unassigned"

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, farmer *models.Farmer) error
	FindByID(ctx context.Context, businessID, id string) (*models.Farmer, error)
	List(ctx context.Context, businessID string, filter ListFilter) ([]models.Farmer, error)
	Update(ctx context.Context, businessID, id string, changes map[string]any) (int64, error)
	Deactivate(ctx context.Context, businessID, id string) (int64, error)
}

// IDSource hands out per-business farmer ids.
type IDSource interface {
	NextID(ctx context.Context, tx *gorm.DB, businessID string, kind sequence.Kind) (string, error)
}

// AccountProvisioner creates the companion login for a new farmer.
type AccountProvisioner interface {
	ProvisionFarmerAccount(ctx context.Context, tx *gorm.DB, businessID, farmerName, farmerID string) (*accounts.ProvisionedCredentials, error)
}

// TxRunner executes work inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements farmer registration and lifecycle.
type Service struct {
	store    Store
	ids      IDSource
	provider AccountProvisioner
	tx       TxRunner
}

// NewService wires the farmers service.
func NewService(store Store, ids IDSource, provider AccountProvisioner, tx TxRunner) (*Service, error) {
	if store == nil || ids == nil || provider == nil || tx == nil {
		return nil, fmt.Errorf("farmers service requires store, id source, provisioner and tx runner")
	}
	return &Service{store: store, ids: ids, provider: provider, tx: tx}, nil
}

// CreateInput carries a farmer registration request.
type CreateInput struct {
	Name   string
	Phone  string
	Region string
}

// Created pairs the stored farmer with the login credentials minted for them.
// The plaintext password is surfaced exactly once for the admin to hand over.
type Created struct {
	Farmer      *models.Farmer                   `json:"farmer"`
	Credentials *accounts.ProvisionedCredentials `json:"credentials"`
}

// Create registers a farmer and auto-provisions their login in one
// transaction, so a username collision never leaves an orphaned farmer row.
func (s *Service) Create(ctx context.Context, businessID string, input CreateInput) (*Created, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer name is required")
	}
	region := strings.TrimSpace(input.Region)
	if region == "" {
		region = DefaultRegion
	}

	var created Created
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := s.ids.NextID(ctx, tx, businessID, sequence.KindFarmer)
		if err != nil {
			return err
		}

		farmer := &models.Farmer{
			BusinessID: businessID,
			ID:         id,
			Name:       name,
			Phone:      strings.TrimSpace(input.Phone),
			Region:     region,
			IsActive:   true,
		}
		if err := s.store.Create(ctx, tx, farmer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create farmer")
		}

		creds, err := s.provider.ProvisionFarmerAccount(ctx, tx, businessID, name, id)
		if err != nil {
			return err
		}

		created = Created{Farmer: farmer, Credentials: creds}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns the business's farmers per the filter.
func (s *Service) List(ctx context.Context, businessID string, filter ListFilter) ([]models.Farmer, error) {
	result, err := s.store.List(ctx, businessID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list farmers")
	}
	return result, nil
}

// Get loads one farmer. Farmer callers may only read their own record.
func (s *Service) Get(ctx context.Context, businessID, id string, callerRole enums.Role, callerFarmerID string) (*models.Farmer, error) {
	if callerRole == enums.RoleFarmer && callerFarmerID != id {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmers may only view their own record")
	}

	farmer, err := s.store.FindByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

// UpdateInput carries a partial farmer update; nil fields are untouched.
type UpdateInput struct {
	Name   *string
	Phone  *string
	Region *string
}

// Update applies a partial update to a farmer.
func (s *Service) Update(ctx context.Context, businessID, id string, input UpdateInput) (*models.Farmer, error) {
	changes := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer name cannot be empty")
		}
		changes["name"] = name
	}
	if input.Phone != nil {
		changes["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Region != nil {
		region := strings.TrimSpace(*input.Region)
		if region == "" {
			region = DefaultRegion
		}
		changes["region"] = region
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	updated, err := s.store.Update(ctx, businessID, id, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update farmer")
	}
	if updated == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
	}
	return s.Get(ctx, businessID, id, enums.RoleAdmin, "")
}

// Delete soft-deletes a farmer; milk and advance history keep resolving.
func (s *Service) Delete(ctx context.Context, businessID, id string) error {
	updated, err := s.store.Deactivate(ctx, businessID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate farmer")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
	}
	return nil
}
