package subscriptions

import (
	"fmt"
	"time"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// DenyReason classifies why the gate refused a request.
type DenyReason string

const (
	DenyNoSubscription DenyReason = "no_subscription"
	DenyExpired        DenyReason = "expired"
	DenyTrialExpired   DenyReason = "trial_expired"
)

// Message returns the user-visible failure text for the reason.
func (r DenyReason) Message() string {
	switch r {
	case DenyNoSubscription:
		return "No subscription found"
	case DenyExpired:
		return "Subscription expired"
	case DenyTrialExpired:
		return "Trial expired"
	}
	return "access denied"
}

// Decision is the outcome of evaluating a subscription at a point in time.
// NewStatus is non-nil when lazy expiry requires a persisted transition; the
// caller decides whether and when to write it back.
type Decision struct {
	Admit       bool
	Reason      DenyReason
	Warning     string
	TrialActive bool
	NewStatus   *enums.SubscriptionStatus
}

const expiryWarningDays = 7

// Policy tunes the evaluation windows. Zero values fall back to the package
// defaults, so Policy{} behaves like the stock 30/7 windows.
type Policy struct {
	TrialDays         int
	ExpiryWarningDays int
}

func (p Policy) normalized() Policy {
	if p.TrialDays <= 0 {
		p.TrialDays = TrialDays
	}
	if p.ExpiryWarningDays <= 0 {
		p.ExpiryWarningDays = expiryWarningDays
	}
	return p
}

// Evaluate computes admission under the default policy windows.
func Evaluate(sub *models.Subscription, now time.Time) Decision {
	return EvaluatePolicy(sub, now, Policy{})
}

// EvaluatePolicy computes admission for a subscription at the given instant.
// It is a pure function: the subscription is never mutated.
func EvaluatePolicy(sub *models.Subscription, now time.Time, policy Policy) Decision {
	policy = policy.normalized()
	if sub == nil {
		return Decision{Admit: false, Reason: DenyNoSubscription}
	}

	if sub.Status == enums.SubscriptionStatusTrial {
		trialEnd := sub.StartDate.AddDate(0, 0, policy.TrialDays)
		if now.After(trialEnd) {
			expired := enums.SubscriptionStatusExpired
			return Decision{Admit: false, Reason: DenyTrialExpired, NewStatus: &expired}
		}
		return Decision{Admit: true, TrialActive: true}
	}

	if now.After(sub.ExpiryDate) {
		reason := DenyExpired
		expired := enums.SubscriptionStatusExpired
		return Decision{Admit: false, Reason: reason, NewStatus: &expired}
	}

	if sub.Status == enums.SubscriptionStatusInactive || sub.Status == enums.SubscriptionStatusExpired {
		return Decision{Admit: false, Reason: DenyExpired}
	}

	decision := Decision{Admit: true}
	if daysLeft := daysUntil(sub.ExpiryDate, now); daysLeft > 0 && daysLeft <= policy.ExpiryWarningDays {
		decision.Warning = fmt.Sprintf("Only %d days remaining", daysLeft)
	}
	return decision
}

// daysUntil is the ceiling of the remaining duration in whole days.
func daysUntil(expiry, now time.Time) int {
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
