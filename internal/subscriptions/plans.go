package subscriptions

import (
	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/pkg/enums"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// PlanTerms fixes the duration and price of a paid plan. Prices are KES.
type PlanTerms struct {
	Plan   enums.SubscriptionPlan
	Days   int
	Amount decimal.Decimal
}

// TrialDays is the unpaid window granted at admin registration.
const TrialDays = 30

var paidPlans = map[enums.SubscriptionPlan]PlanTerms{
	enums.SubscriptionPlanMonthly: {
		Plan:   enums.SubscriptionPlanMonthly,
		Days:   30,
		Amount: decimal.NewFromInt(1000),
	},
	enums.SubscriptionPlanQuarterly: {
		Plan:   enums.SubscriptionPlanQuarterly,
		Days:   90,
		Amount: decimal.NewFromInt(2500),
	},
	enums.SubscriptionPlanYearly: {
		Plan:   enums.SubscriptionPlanYearly,
		Days:   365,
		Amount: decimal.NewFromInt(9000),
	},
}

// TermsFor resolves the purchasable terms for a plan name. Trial and manual
// plans are not purchasable.
func TermsFor(plan enums.SubscriptionPlan) (PlanTerms, error) {
	terms, ok := paidPlans[plan]
	if !ok {
		return PlanTerms{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan")
	}
	return terms, nil
}
