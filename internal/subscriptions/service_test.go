package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

type stubStore struct {
	subs []*models.Subscription
}

func (s *stubStore) Create(_ context.Context, _ *gorm.DB, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *stubStore) FindByBusiness(_ context.Context, businessID string) (*models.Subscription, error) {
	for _, sub := range s.subs {
		if sub.BusinessID == businessID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) Save(_ context.Context, sub *models.Subscription) error {
	for i, existing := range s.subs {
		if existing.ID == sub.ID {
			copied := *sub
			s.subs[i] = &copied
			return nil
		}
	}
	copied := *sub
	s.subs = append(s.subs, &copied)
	return nil
}

func (s *stubStore) UpdateStatus(_ context.Context, businessID string, status enums.SubscriptionStatus) error {
	for _, sub := range s.subs {
		if sub.BusinessID == businessID {
			sub.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubStore) FindPendingByAmount(_ context.Context, amountPaid decimal.Decimal) (*models.Subscription, error) {
	var best *models.Subscription
	for _, sub := range s.subs {
		if sub.Status != enums.SubscriptionStatusPendingPayment || sub.Amount.GreaterThan(amountPaid) {
			continue
		}
		if best == nil || sub.UpdatedAt.After(best.UpdatedAt) {
			best = sub
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *best
	return &copied, nil
}

func newTestService(t *testing.T, store *stubStore) *Service {
	t.Helper()
	return newTestServiceWithPolicy(t, store, Policy{})
}

func newTestServiceWithPolicy(t *testing.T, store *stubStore, policy Policy) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
	svc, err := NewService(store, logg, policy)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateTrialOpensThirtyDayWindow(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(t, store)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, err := svc.CreateTrial(context.Background(), nil, "b1", now)
	if err != nil {
		t.Fatalf("create trial: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusTrial || sub.Plan != enums.SubscriptionPlanTrial {
		t.Fatalf("unexpected trial row %+v", sub)
	}
	if !sub.ExpiryDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected 30-day expiry, got %s", sub.ExpiryDate)
	}
}

func TestCreateTrialHonorsConfiguredWindow(t *testing.T) {
	store := &stubStore{}
	svc := newTestServiceWithPolicy(t, store, Policy{TrialDays: 14})

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, err := svc.CreateTrial(context.Background(), nil, "b1", now)
	if err != nil {
		t.Fatalf("create trial: %v", err)
	}
	if !sub.ExpiryDate.Equal(now.AddDate(0, 0, 14)) {
		t.Fatalf("expected 14-day expiry, got %s", sub.ExpiryDate)
	}
}

func TestStatusPersistsLazyExpiry(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -40)
	store := &stubStore{subs: []*models.Subscription{{
		ID:         uuid.New(),
		BusinessID: "b1",
		Plan:       enums.SubscriptionPlanMonthly,
		Status:     enums.SubscriptionStatusActive,
		StartDate:  old,
		ExpiryDate: old.AddDate(0, 0, 30),
	}}}
	svc := newTestService(t, store)

	view, err := svc.Status(context.Background(), "b1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Subscription.Status != enums.SubscriptionStatusExpired {
		t.Fatalf("expected expired view, got %s", view.Subscription.Status)
	}
	if store.subs[0].Status != enums.SubscriptionStatusExpired {
		t.Fatalf("expected persisted transition, got %s", store.subs[0].Status)
	}
	if view.DaysLeft != 0 {
		t.Fatalf("expected no days left, got %d", view.DaysLeft)
	}
}

func TestSubscribeMovesToPendingPayment(t *testing.T) {
	store := &stubStore{subs: []*models.Subscription{{
		ID:         uuid.New(),
		BusinessID: "b1",
		Plan:       enums.SubscriptionPlanTrial,
		Status:     enums.SubscriptionStatusTrial,
		StartDate:  time.Now().UTC(),
		ExpiryDate: time.Now().UTC().AddDate(0, 0, 30),
	}}}
	svc := newTestService(t, store)

	sub, err := svc.Subscribe(context.Background(), "b1", enums.SubscriptionPlanQuarterly)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", sub.Status)
	}
	if !sub.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected quarterly price 2500, got %s", sub.Amount)
	}

	_, err = svc.Subscribe(context.Background(), "b1", enums.SubscriptionPlan("weekly"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown plan, got %v", err)
	}
}

func TestActivateFromPaymentChecksAmount(t *testing.T) {
	store := &stubStore{subs: []*models.Subscription{{
		ID:         uuid.New(),
		BusinessID: "b1",
		Plan:       enums.SubscriptionPlanMonthly,
		Amount:     decimal.NewFromInt(1000),
		Status:     enums.SubscriptionStatusPendingPayment,
	}}}
	svc := newTestService(t, store)

	_, err := svc.ActivateFromPayment(context.Background(), PaymentNotice{
		BusinessID: "b1",
		Amount:     decimal.NewFromInt(500),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for underpayment, got %v", err)
	}

	sub, err := svc.ActivateFromPayment(context.Background(), PaymentNotice{
		BusinessID: "b1",
		Amount:     decimal.NewFromInt(1000),
		Receipt:    "QA12BC34",
	})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("expected active, got %s", sub.Status)
	}
	if !sub.ExpiryDate.After(time.Now().UTC().AddDate(0, 0, 29)) {
		t.Fatalf("expected a fresh 30-day window, got %s", sub.ExpiryDate)
	}
}

func TestActivateFromPaymentMatchesPendingByAmount(t *testing.T) {
	store := &stubStore{subs: []*models.Subscription{{
		ID:         uuid.New(),
		BusinessID: "b1",
		Plan:       enums.SubscriptionPlanYearly,
		Amount:     decimal.NewFromInt(9000),
		Status:     enums.SubscriptionStatusPendingPayment,
	}}}
	svc := newTestService(t, store)

	sub, err := svc.ActivateFromPayment(context.Background(), PaymentNotice{
		Amount: decimal.NewFromInt(9000),
	})
	if err != nil {
		t.Fatalf("activate without business reference: %v", err)
	}
	if sub.BusinessID != "b1" || sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected activation target %+v", sub)
	}

	_, err = svc.ActivateFromPayment(context.Background(), PaymentNotice{
		Amount: decimal.NewFromInt(9000),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected no remaining pending subscription, got %v", err)
	}
}
