package tenant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// Store is the account lookup surface the directory depends on.
type Store interface {
	FindAdminByBusiness(ctx context.Context, businessID string) (*models.Account, error)
}

// Service resolves which business carries the subscription a caller's access
// is billed against. Every business has exactly one admin; staff ride on that
// admin's subscription.
type Service struct {
	store Store
}

// NewService wires the tenant directory.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("tenant store is required")
	}
	return &Service{store: store}, nil
}

// ResolveBillingBusiness returns the business whose subscription governs the
// caller. Admins bill their own business directly; staff are only admitted
// when their business still has an admin to bill.
func (s *Service) ResolveBillingBusiness(ctx context.Context, role enums.Role, businessID string) (string, error) {
	if businessID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing business context")
	}
	if role == enums.RoleAdmin {
		return businessID, nil
	}

	if _, err := s.store.FindAdminByBusiness(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "no admin found for business")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve business admin")
	}
	return businessID, nil
}
