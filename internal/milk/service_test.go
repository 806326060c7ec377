package milk

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

type stubStore struct {
	records []*models.MilkRecord
}

func (s *stubStore) Create(_ context.Context, _ *gorm.DB, record *models.MilkRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubStore) Exists(_ context.Context, businessID, farmerID, date string, session enums.MilkSession) (bool, error) {
	for _, record := range s.records {
		if record.BusinessID == businessID && record.FarmerID == farmerID &&
			record.Date == date && record.Session == session {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) List(_ context.Context, businessID string, filter ListFilter) ([]models.MilkRecord, error) {
	var result []models.MilkRecord
	for _, record := range s.records {
		if record.BusinessID != businessID {
			continue
		}
		if filter.FarmerID != "" && record.FarmerID != filter.FarmerID {
			continue
		}
		if filter.CreatedBy != "" && record.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Region != "" && record.Region != filter.Region {
			continue
		}
		if filter.Date != "" && record.Date != filter.Date {
			continue
		}
		if filter.Month != "" && (len(record.Date) < len(filter.Month) || record.Date[:len(filter.Month)] != filter.Month) {
			continue
		}
		result = append(result, *record)
	}
	return result, nil
}

func (s *stubStore) Delete(_ context.Context, businessID, id string) (int64, error) {
	for i, record := range s.records {
		if record.BusinessID == businessID && record.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type stubFarmers struct {
	farmers map[string]*models.Farmer
}

func (s *stubFarmers) FindByID(_ context.Context, businessID, id string) (*models.Farmer, error) {
	if farmer, ok := s.farmers[businessID+"/"+id]; ok {
		return farmer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubIDs struct {
	next int64
}

func (s *stubIDs) NextID(_ context.Context, _ *gorm.DB, _ string, kind sequence.Kind) (string, error) {
	s.next++
	return sequence.FormatID(kind, s.next), nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, store *stubStore) *Service {
	t.Helper()
	farmers := &stubFarmers{farmers: map[string]*models.Farmer{
		"b1/F001": {BusinessID: "b1", ID: "F001", Name: "John", Region: "North", IsActive: true},
	}}
	svc, err := NewService(store, farmers, &stubIDs{}, stubTx{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateRecordsIntake(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store)

	record, err := svc.Create(context.Background(), "b1", "staff-1", CreateInput{
		FarmerID: "F001",
		Date:     "2026-06-01",
		Session:  "Morning",
		Litres:   12.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.ID != "M0001" {
		t.Fatalf("expected M0001 got %s", record.ID)
	}
	if record.Session != enums.MilkSessionMorning {
		t.Fatalf("expected normalized session, got %s", record.Session)
	}
	if record.Region != "North" {
		t.Fatalf("expected region copied from farmer, got %s", record.Region)
	}
}

func TestCreateRejectsDuplicateSession(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store)

	input := CreateInput{FarmerID: "F001", Date: "2026-06-01", Session: "morning", Litres: 10}
	if _, err := svc.Create(context.Background(), "b1", "staff-1", input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), "b1", "staff-1", input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	evening := input
	evening.Session = "evening"
	if _, err := svc.Create(context.Background(), "b1", "staff-1", evening); err != nil {
		t.Fatalf("evening session should be independent: %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestService(t, &stubStore{})

	cases := []struct {
		name  string
		input CreateInput
		code  pkgerrors.Code
	}{
		{"missing farmer", CreateInput{Session: "morning", Litres: 1}, pkgerrors.CodeValidation},
		{"zero litres", CreateInput{FarmerID: "F001", Session: "morning"}, pkgerrors.CodeValidation},
		{"bad session", CreateInput{FarmerID: "F001", Session: "noon", Litres: 1}, pkgerrors.CodeValidation},
		{"bad date", CreateInput{FarmerID: "F001", Session: "morning", Litres: 1, Date: "01/06/2026"}, pkgerrors.CodeValidation},
		{"unknown farmer", CreateInput{FarmerID: "F999", Session: "morning", Litres: 1}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), "b1", "staff-1", tc.input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != tc.code {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
}

func TestListNarrowsByRole(t *testing.T) {
	store := &stubStore{records: []*models.MilkRecord{
		{BusinessID: "b1", ID: "M0001", FarmerID: "F001", Date: "2026-06-01", Session: enums.MilkSessionMorning, Litres: 10, CreatedBy: "staff-1"},
		{BusinessID: "b1", ID: "M0002", FarmerID: "F002", Date: "2026-06-01", Session: enums.MilkSessionMorning, Litres: 8, CreatedBy: "staff-2"},
		{BusinessID: "b2", ID: "M0001", FarmerID: "F001", Date: "2026-06-01", Session: enums.MilkSessionMorning, Litres: 9, CreatedBy: "staff-9"},
	}}
	svc := newTestService(t, store)

	all, err := svc.List(context.Background(), "b1", Caller{UserID: "admin-1", Role: enums.RoleAdmin}, ListFilter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see the whole business, got %d", len(all))
	}

	own, err := svc.List(context.Background(), "b1", Caller{UserID: "staff-1", Role: enums.RoleStaff}, ListFilter{})
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if len(own) != 1 || own[0].CreatedBy != "staff-1" {
		t.Fatalf("staff should only see own records, got %+v", own)
	}

	mine, err := svc.List(context.Background(), "b1", Caller{UserID: "u-f", Role: enums.RoleFarmer, FarmerID: "F002"}, ListFilter{})
	if err != nil {
		t.Fatalf("farmer list: %v", err)
	}
	if len(mine) != 1 || mine[0].FarmerID != "F002" {
		t.Fatalf("farmer should only see own intake, got %+v", mine)
	}

	_, err = svc.List(context.Background(), "b1", Caller{UserID: "u-x", Role: enums.RoleFarmer}, ListFilter{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unlinked farmer account, got %v", err)
	}
}

func TestListMonthFilter(t *testing.T) {
	store := &stubStore{records: []*models.MilkRecord{
		{BusinessID: "b1", ID: "M0001", FarmerID: "F001", Date: "2026-05-31", Session: enums.MilkSessionMorning, Litres: 10, CreatedBy: "s"},
		{BusinessID: "b1", ID: "M0002", FarmerID: "F001", Date: "2026-06-01", Session: enums.MilkSessionMorning, Litres: 11, CreatedBy: "s"},
	}}
	svc := newTestService(t, store)

	june, err := svc.List(context.Background(), "b1", Caller{Role: enums.RoleAdmin}, ListFilter{Month: "2026-06"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(june) != 1 || june[0].Date != "2026-06-01" {
		t.Fatalf("expected only the June record, got %+v", june)
	}
}

func TestDeleteScopedByBusiness(t *testing.T) {
	store := &stubStore{records: []*models.MilkRecord{
		{BusinessID: "b1", ID: "M0001", FarmerID: "F001", Date: "2026-06-01", Session: enums.MilkSessionMorning, Litres: 10, CreatedBy: "s"},
	}}
	svc := newTestService(t, store)

	err := svc.Delete(context.Background(), "b2", "M0001")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found across businesses, got %v", err)
	}
	if err := svc.Delete(context.Background(), "b1", "M0001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
