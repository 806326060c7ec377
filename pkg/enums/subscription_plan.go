package enums

import "fmt"

// SubscriptionPlan identifies the billing cadence a business signed up for.
type SubscriptionPlan string

const (
	SubscriptionPlanTrial     SubscriptionPlan = "trial"
	SubscriptionPlanMonthly   SubscriptionPlan = "monthly"
	SubscriptionPlanQuarterly SubscriptionPlan = "quarterly"
	SubscriptionPlanYearly    SubscriptionPlan = "yearly"
	SubscriptionPlanManual    SubscriptionPlan = "manual"
)

var validSubscriptionPlans = []SubscriptionPlan{
	SubscriptionPlanTrial,
	SubscriptionPlanMonthly,
	SubscriptionPlanQuarterly,
	SubscriptionPlanYearly,
	SubscriptionPlanManual,
}

// String implements fmt.Stringer.
func (p SubscriptionPlan) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p SubscriptionPlan) IsValid() bool {
	for _, candidate := range validSubscriptionPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSubscriptionPlan converts raw input into a SubscriptionPlan.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	for _, candidate := range validSubscriptionPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription plan %q", value)
}
