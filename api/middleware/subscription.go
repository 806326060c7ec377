package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/jkemboi/maziwa-backend/api/responses"
	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
	"github.com/jkemboi/maziwa-backend/pkg/metrics"
)

const (
	warningHeader = "X-Subscription-Warning"
	statusHeader  = "X-Subscription-Status"
)

// BillingResolver maps a caller to the business whose subscription gates it.
type BillingResolver interface {
	ResolveBillingBusiness(ctx context.Context, role enums.Role, businessID string) (string, error)
}

// SubscriptionEvaluator decides admission for a business and persists any lazy
// expiry transition.
type SubscriptionEvaluator interface {
	EvaluateForBusiness(ctx context.Context, businessID string, now time.Time) (subscriptions.Decision, error)
}

// SubscriptionGate blocks admin and staff traffic once the business's
// subscription has lapsed. Farmer accounts always pass: a lapsed cooperative
// must not lock suppliers out of their own delivery history.
func SubscriptionGate(resolver BillingResolver, evaluator SubscriptionEvaluator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			role := enums.Role(RoleFromContext(ctx))
			if role == enums.RoleFarmer {
				next.ServeHTTP(w, r)
				return
			}

			billing, err := resolver.ResolveBillingBusiness(ctx, role, BusinessIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			decision, err := evaluator.EvaluateForBusiness(ctx, billing, time.Now().UTC())
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if !decision.Admit {
				metrics.ObserveGateDenial(string(decision.Reason))
				if logg != nil {
					denyCtx := logg.WithFields(ctx, map[string]any{
						"business_id": billing,
						"reason":      string(decision.Reason),
					})
					logg.Warn(denyCtx, "subscription.gate.denied")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, decision.Reason.Message()))
				return
			}

			if decision.Warning != "" {
				w.Header().Set(warningHeader, decision.Warning)
			}
			if decision.TrialActive {
				w.Header().Set(statusHeader, "Trial active")
			}

			next.ServeHTTP(w, r)
		})
	}
}
