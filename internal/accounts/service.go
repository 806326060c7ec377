package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/security"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, account *models.Account) error
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindAdminByBusiness(ctx context.Context, businessID string) (*models.Account, error)
	ListByBusiness(ctx context.Context, businessID string) ([]models.Account, error)
	UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	DeleteByID(ctx context.Context, businessID string, id uuid.UUID) (int64, error)
}

// TrialProvisioner opens the 30-day trial subscription that every new admin
// business starts with.
type TrialProvisioner interface {
	CreateTrial(ctx context.Context, tx *gorm.DB, businessID string, now time.Time) (*models.Subscription, error)
}

// Service implements account registration, login and farmer auto-provisioning.
type Service struct {
	store  Store
	trials TrialProvisioner
}

// NewService wires the accounts service.
func NewService(store Store, trials TrialProvisioner) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("accounts store is required")
	}
	if trials == nil {
		return nil, fmt.Errorf("trial provisioner is required")
	}
	return &Service{store: store, trials: trials}, nil
}

// RegisterInput carries a self-service registration request.
type RegisterInput struct {
	Username   string
	Password   string
	Role       enums.Role
	BusinessID string
}

// Register creates an account. Admin registrations mint a fresh business id
// and open a trial subscription; staff registrations must reference an
// existing admin's business.
func (s *Service) Register(ctx context.Context, tx *gorm.DB, input RegisterInput) (*models.Account, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleStaff
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	exists, err := s.store.UsernameExists(ctx, tx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already exists")
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	businessID := strings.TrimSpace(input.BusinessID)
	switch role {
	case enums.RoleAdmin:
		businessID = uuid.NewString()
	default:
		if businessID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required for staff accounts")
		}
		if _, err := s.store.FindAdminByBusiness(ctx, businessID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no admin found for the given business")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve business admin")
		}
	}

	account := &models.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		BusinessID:   businessID,
	}
	if err := s.store.Create(ctx, tx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	if role == enums.RoleAdmin {
		if _, err := s.trials.CreateTrial(ctx, tx, businessID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// Login verifies the credentials and returns the matching account.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing username or password")
	}

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	if !security.VerifyPassword(password, account.PasswordHash) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid username or password")
	}
	return account, nil
}

// List returns every account in the caller's business.
func (s *Service) List(ctx context.Context, businessID string) ([]models.Account, error) {
	result, err := s.store.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	return result, nil
}

// Delete removes an account within the caller's business.
func (s *Service) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	removed, err := s.store.DeleteByID(ctx, businessID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete account")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return nil
}

// ProvisionedCredentials is returned to the admin so the farmer can be handed
// their initial login.
type ProvisionedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ProvisionFarmerAccount auto-creates the companion farmer login when a farmer
// is registered. The initial password equals the farmer id; the username is the
// farmer's lowercased first name with a numeric suffix when taken.
func (s *Service) ProvisionFarmerAccount(ctx context.Context, tx *gorm.DB, businessID, farmerName, farmerID string) (*ProvisionedCredentials, error) {
	username, err := s.disambiguateUsername(ctx, tx, usernameFromName(farmerName))
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(farmerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash farmer credential")
	}

	account := &models.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         enums.RoleFarmer,
		BusinessID:   businessID,
		FarmerID:     &farmerID,
	}
	if err := s.store.Create(ctx, tx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create farmer account")
	}

	return &ProvisionedCredentials{
		Username: username,
		Password: farmerID,
		Role:     string(enums.RoleFarmer),
	}, nil
}

func (s *Service) disambiguateUsername(ctx context.Context, tx *gorm.DB, base string) (string, error) {
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := s.store.UsernameExists(ctx, tx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}

func usernameFromName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "farmer"
	}
	return strings.ToLower(fields[0])
}
