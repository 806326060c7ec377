package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error
	FindByBusiness(ctx context.Context, businessID string) (*models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
	UpdateStatus(ctx context.Context, businessID string, status enums.SubscriptionStatus) error
	FindPendingByAmount(ctx context.Context, amountPaid decimal.Decimal) (*models.Subscription, error)
}

// Service owns the billing lifecycle of a business: trial at registration,
// plan purchase, lazy expiry and payment confirmation.
type Service struct {
	store  Store
	logg   *logger.Logger
	policy Policy
}

// NewService wires the subscriptions service. Zero policy fields fall back to
// the package defaults.
func NewService(store Store, logg *logger.Logger, policy Policy) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("subscriptions store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: store, logg: logg, policy: policy.normalized()}, nil
}

// CreateTrial opens the trial row for a freshly registered business.
func (s *Service) CreateTrial(ctx context.Context, tx *gorm.DB, businessID string, now time.Time) (*models.Subscription, error) {
	sub := &models.Subscription{
		BusinessID: businessID,
		Plan:       enums.SubscriptionPlanTrial,
		Amount:     decimal.Zero,
		StartDate:  now,
		ExpiryDate: now.AddDate(0, 0, s.policy.TrialDays),
		Status:     enums.SubscriptionStatusTrial,
	}
	if err := s.store.Create(ctx, tx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trial subscription")
	}
	return sub, nil
}

// StatusView is the subscription state reported to the admin dashboard.
type StatusView struct {
	Subscription *models.Subscription `json:"subscription"`
	DaysLeft     int                  `json:"daysLeft"`
	Warning      string               `json:"warning,omitempty"`
}

// Status loads the business subscription, persisting an expiry transition when
// the deadline has lapsed since the last read.
func (s *Service) Status(ctx context.Context, businessID string) (*StatusView, error) {
	sub, err := s.store.FindByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	now := time.Now().UTC()
	decision := EvaluatePolicy(sub, now, s.policy)
	if decision.NewStatus != nil {
		if err := s.store.UpdateStatus(ctx, businessID, *decision.NewStatus); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist expiry")
		}
		sub.Status = *decision.NewStatus
	}

	return &StatusView{
		Subscription: sub,
		DaysLeft:     daysUntil(sub.ExpiryDate, now),
		Warning:      decision.Warning,
	}, nil
}

// EvaluateForBusiness runs the gate decision for a business and persists any
// lazy expiry transition before returning.
func (s *Service) EvaluateForBusiness(ctx context.Context, businessID string, now time.Time) (Decision, error) {
	sub, err := s.store.FindByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EvaluatePolicy(nil, now, s.policy), nil
		}
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	decision := EvaluatePolicy(sub, now, s.policy)
	if decision.NewStatus != nil {
		if err := s.store.UpdateStatus(ctx, businessID, *decision.NewStatus); err != nil {
			// The denial stands either way; the next read retries the write.
			s.logg.Error(s.logg.WithBusinessID(ctx, businessID), "persist lazy expiry", err)
		}
	}
	return decision, nil
}

// Subscribe records intent to purchase a plan. The subscription moves to
// pending_payment with the plan's price and window; activation happens when
// the payment callback confirms the charge.
func (s *Service) Subscribe(ctx context.Context, businessID string, plan enums.SubscriptionPlan) (*models.Subscription, error) {
	terms, err := TermsFor(plan)
	if err != nil {
		return nil, err
	}

	sub, err := s.store.FindByBusiness(ctx, businessID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		sub = &models.Subscription{BusinessID: businessID}
	}

	now := time.Now().UTC()
	sub.Plan = terms.Plan
	sub.Amount = terms.Amount
	sub.StartDate = now
	sub.ExpiryDate = now.AddDate(0, 0, terms.Days)
	sub.Status = enums.SubscriptionStatusPendingPayment

	if sub.ID == uuid.Nil {
		err = s.store.Create(ctx, nil, sub)
	} else {
		err = s.store.Save(ctx, sub)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store subscription")
	}
	return sub, nil
}

// PaymentNotice carries the confirmed charge extracted from a gateway
// callback. BusinessID is set when the gateway metadata echoed our account
// reference; otherwise the pending subscription is matched by amount.
type PaymentNotice struct {
	BusinessID string
	Amount     decimal.Decimal
	Receipt    string
	Phone      string
}

// ActivateFromPayment flips a pending subscription to active once the paid
// amount covers the plan price. The paid window restarts at confirmation time.
func (s *Service) ActivateFromPayment(ctx context.Context, notice PaymentNotice) (*models.Subscription, error) {
	sub, err := s.resolvePending(ctx, notice)
	if err != nil {
		return nil, err
	}

	if sub.Status != enums.SubscriptionStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription is not awaiting payment")
	}
	if notice.Amount.LessThan(sub.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("paid amount %s does not cover plan price %s", notice.Amount, sub.Amount))
	}

	terms, err := TermsFor(sub.Plan)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.StartDate = now
	sub.ExpiryDate = now.AddDate(0, 0, terms.Days)
	sub.Status = enums.SubscriptionStatusActive
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}

	s.logg.Info(s.logg.WithBusinessID(ctx, sub.BusinessID),
		fmt.Sprintf("subscription activated: plan=%s receipt=%s", sub.Plan, notice.Receipt))
	return sub, nil
}

func (s *Service) resolvePending(ctx context.Context, notice PaymentNotice) (*models.Subscription, error) {
	if notice.BusinessID != "" {
		sub, err := s.store.FindByBusiness(ctx, notice.BusinessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription for referenced business")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		return sub, nil
	}

	sub, err := s.store.FindPendingByAmount(ctx, notice.Amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending subscription matches the payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match pending subscription")
	}
	return sub, nil
}
