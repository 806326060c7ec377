package farmers

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/internal/accounts"
	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

type stubStore struct {
	farmers []*models.Farmer
}

func (s *stubStore) Create(_ context.Context, _ *gorm.DB, farmer *models.Farmer) error {
	s.farmers = append(s.farmers, farmer)
	return nil
}

func (s *stubStore) FindByID(_ context.Context, businessID, id string) (*models.Farmer, error) {
	for _, farmer := range s.farmers {
		if farmer.BusinessID == businessID && farmer.ID == id {
			copied := *farmer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) List(_ context.Context, businessID string, filter ListFilter) ([]models.Farmer, error) {
	active := true
	if filter.Active != nil {
		active = *filter.Active
	}
	var result []models.Farmer
	for _, farmer := range s.farmers {
		if farmer.BusinessID != businessID || farmer.IsActive != active {
			continue
		}
		if filter.Region != "" && farmer.Region != filter.Region {
			continue
		}
		result = append(result, *farmer)
	}
	return result, nil
}

func (s *stubStore) Update(_ context.Context, businessID, id string, changes map[string]any) (int64, error) {
	for _, farmer := range s.farmers {
		if farmer.BusinessID != businessID || farmer.ID != id {
			continue
		}
		if name, ok := changes["name"].(string); ok {
			farmer.Name = name
		}
		if phone, ok := changes["phone"].(string); ok {
			farmer.Phone = phone
		}
		if region, ok := changes["region"].(string); ok {
			farmer.Region = region
		}
		if active, ok := changes["is_active"].(bool); ok {
			farmer.IsActive = active
		}
		return 1, nil
	}
	return 0, nil
}

func (s *stubStore) Deactivate(ctx context.Context, businessID, id string) (int64, error) {
	return s.Update(ctx, businessID, id, map[string]any{"is_active": false})
}

type stubIDs struct {
	next int64
}

func (s *stubIDs) NextID(_ context.Context, _ *gorm.DB, _ string, kind sequence.Kind) (string, error) {
	s.next++
	return sequence.FormatID(kind, s.next), nil
}

type stubProvisioner struct {
	provisioned []string
	fail        bool
}

func (s *stubProvisioner) ProvisionFarmerAccount(_ context.Context, _ *gorm.DB, _, farmerName, farmerID string) (*accounts.ProvisionedCredentials, error) {
	if s.fail {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already exists")
	}
	s.provisioned = append(s.provisioned, farmerID)
	return &accounts.ProvisionedCredentials{
		Username: "john",
		Password: farmerID,
		Role:     string(enums.RoleFarmer),
	}, nil
}

type stubTx struct {
	rolledBack bool
}

func (s *stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	if err := fn(nil); err != nil {
		s.rolledBack = true
		return err
	}
	return nil
}

func newTestService(t *testing.T, store *stubStore, provider *stubProvisioner) (*Service, *stubTx) {
	t.Helper()
	tx := &stubTx{}
	svc, err := NewService(store, &stubIDs{}, provider, tx)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tx
}

func TestCreateAssignsIDAndProvisionsAccount(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvisioner{}
	svc, _ := newTestService(t, store, provider)

	created, err := svc.Create(context.Background(), "b1", CreateInput{Name: "John Kamau", Phone: "0712000001"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Farmer.ID != "F001" {
		t.Fatalf("expected F001 got %s", created.Farmer.ID)
	}
	if created.Farmer.Region != DefaultRegion {
		t.Fatalf("expected default region got %s", created.Farmer.Region)
	}
	if created.Credentials == nil || created.Credentials.Password != "F001" {
		t.Fatalf("expected credentials seeded from farmer id, got %+v", created.Credentials)
	}
	if len(provider.provisioned) != 1 {
		t.Fatalf("expected one provisioned account, got %d", len(provider.provisioned))
	}

	second, err := svc.Create(context.Background(), "b1", CreateInput{Name: "Grace", Region: "North"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Farmer.ID != "F002" || second.Farmer.Region != "North" {
		t.Fatalf("unexpected second farmer %+v", second.Farmer)
	}
}

func TestCreateRollsBackWhenProvisioningFails(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvisioner{fail: true}
	svc, tx := newTestService(t, store, provider)

	_, err := svc.Create(context.Background(), "b1", CreateInput{Name: "John"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict surfaced, got %v", err)
	}
	if !tx.rolledBack {
		t.Fatal("expected transaction rollback")
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc, _ := newTestService(t, &stubStore{}, &stubProvisioner{})
	_, err := svc.Create(context.Background(), "b1", CreateInput{Name: "  "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListFiltersRegionAndActive(t *testing.T) {
	store := &stubStore{farmers: []*models.Farmer{
		{BusinessID: "b1", ID: "F001", Name: "John", Region: "North", IsActive: true},
		{BusinessID: "b1", ID: "F002", Name: "Grace", Region: "South", IsActive: true},
		{BusinessID: "b1", ID: "F003", Name: "Peter", Region: "North", IsActive: false},
		{BusinessID: "b2", ID: "F001", Name: "Other", Region: "North", IsActive: true},
	}}
	svc, _ := newTestService(t, store, &stubProvisioner{})

	north, err := svc.List(context.Background(), "b1", ListFilter{Region: "North"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(north) != 1 || north[0].ID != "F001" {
		t.Fatalf("expected only active northern farmer, got %+v", north)
	}

	inactive := false
	gone, err := svc.List(context.Background(), "b1", ListFilter{Active: &inactive})
	if err != nil {
		t.Fatalf("list inactive: %v", err)
	}
	if len(gone) != 1 || gone[0].ID != "F003" {
		t.Fatalf("expected the deactivated farmer, got %+v", gone)
	}
}

func TestGetEnforcesFarmerSelfAccess(t *testing.T) {
	store := &stubStore{farmers: []*models.Farmer{
		{BusinessID: "b1", ID: "F001", Name: "John", IsActive: true},
		{BusinessID: "b1", ID: "F002", Name: "Grace", IsActive: true},
	}}
	svc, _ := newTestService(t, store, &stubProvisioner{})

	if _, err := svc.Get(context.Background(), "b1", "F001", enums.RoleFarmer, "F001"); err != nil {
		t.Fatalf("own record: %v", err)
	}
	_, err := svc.Get(context.Background(), "b1", "F002", enums.RoleFarmer, "F001")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden across farmers, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "b1", "F002", enums.RoleStaff, ""); err != nil {
		t.Fatalf("staff read: %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := &stubStore{farmers: []*models.Farmer{
		{BusinessID: "b1", ID: "F001", Name: "John", Region: "North", IsActive: true},
	}}
	svc, _ := newTestService(t, store, &stubProvisioner{})

	newRegion := "South"
	updated, err := svc.Update(context.Background(), "b1", "F001", UpdateInput{Region: &newRegion})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Region != "South" {
		t.Fatalf("expected region change, got %s", updated.Region)
	}

	_, err = svc.Update(context.Background(), "b1", "F001", UpdateInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}

	if err := svc.Delete(context.Background(), "b1", "F001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.farmers[0].IsActive {
		t.Fatal("expected soft delete to deactivate the farmer")
	}
	err = svc.Delete(context.Background(), "b1", "F404")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateManyKeepsIDsDense(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestService(t, store, &stubProvisioner{})

	for i := 1; i <= 3; i++ {
		created, err := svc.Create(context.Background(), "b1", CreateInput{Name: fmt.Sprintf("Farmer %d", i)})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		want := fmt.Sprintf("F%03d", i)
		if created.Farmer.ID != want {
			t.Fatalf("expected %s got %s", want, created.Farmer.ID)
		}
	}
}
