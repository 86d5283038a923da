// Package billing owns the payments surface: Stripe checkout/portal
// sessions, subscription status lookup, and the plan -> entitlement mapping
// that gates features in the UI.
package billing

// Plan is a subscription tier. Only three values are valid; anything else
// degrades to free.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// Entitlements is the feature/quota set a plan unlocks. A zero limit means
// unlimited; limits only apply when the matching feature flag is true.
type Entitlements struct {
	Plan              Plan `json:"plan"`
	Integrations      bool `json:"integrations"`
	Exports           bool `json:"exports"`
	ScheduledRuns     bool `json:"scheduled_runs"`
	MaxSources        int  `json:"max_sources"`
	MaxMonthlyExports int  `json:"max_monthly_exports"`
	MaxIntegrations   int  `json:"max_integrations"`
}

// ResolvePlan maps a plan name to its entitlement set. The mapping is pure
// and total: unrecognized values fail closed to the free tier.
func ResolvePlan(plan string) Entitlements {
	switch Plan(plan) {
	case PlanPro:
		return Entitlements{
			Plan:              PlanPro,
			Integrations:      true,
			Exports:           true,
			ScheduledRuns:     true,
			MaxSources:        0,
			MaxMonthlyExports: 500,
			MaxIntegrations:   10,
		}
	case PlanBusiness:
		return Entitlements{
			Plan:          PlanBusiness,
			Integrations:  true,
			Exports:       true,
			ScheduledRuns: true,
		}
	default:
		return Entitlements{
			Plan:              PlanFree,
			MaxSources:        5,
			MaxMonthlyExports: 5,
		}
	}
}

// ParsePlan validates a caller-supplied plan name for checkout. Only paid
// plans are valid checkout targets.
func ParsePlan(plan string) (Plan, bool) {
	switch Plan(plan) {
	case PlanPro, PlanBusiness:
		return Plan(plan), true
	default:
		return "", false
	}
}
