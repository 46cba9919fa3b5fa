package billing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/platinummonkey/garage/pkg/domain"
)

// Plan identifies a subscription plan a garage can be billed on
type Plan string

const (
	PlanStarter   Plan = "starter"
	PlanBasic     Plan = "basic"
	PlanUnlimited Plan = "unlimited"
)

// DefaultTrialDays is the length of the trial started when a garage is
// created with a plan
const DefaultTrialDays = 14

// PlanPricing defines pricing for subscription plans
type PlanPricing struct {
	Plan                Plan
	Title               string
	BasePriceCents      int64 // Base monthly price
	IncludedSubAccounts int   // -1 means unlimited
	IncludedTeamMembers int   // -1 means unlimited
}

// DefaultPlanPricing returns default pricing for each plan
func DefaultPlanPricing() map[Plan]PlanPricing {
	return map[Plan]PlanPricing{
		PlanStarter: {
			Plan:                PlanStarter,
			Title:               "Starter",
			BasePriceCents:      0,
			IncludedSubAccounts: 3,
			IncludedTeamMembers: 2,
		},
		PlanBasic: {
			Plan:                PlanBasic,
			Title:               "Basic",
			BasePriceCents:      4900, // $49/month
			IncludedSubAccounts: 10,
			IncludedTeamMembers: 10,
		},
		PlanUnlimited: {
			Plan:                PlanUnlimited,
			Title:               "Unlimited Saas",
			BasePriceCents:      19900, // $199/month
			IncludedSubAccounts: -1,
			IncludedTeamMembers: -1,
		},
	}
}

// Plans returns the known plans ordered by price
func Plans() []PlanPricing {
	pricing := DefaultPlanPricing()
	out := make([]PlanPricing, 0, len(pricing))
	for _, p := range pricing {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BasePriceCents < out[j].BasePriceCents })
	return out
}

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	_, ok := DefaultPlanPricing()[p]
	return ok
}

// ParsePlan parses a plan name, case-insensitively. An empty string yields
// a nil plan and no error.
func ParsePlan(s string) (*Plan, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	p := Plan(s)
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	return &p, nil
}

// AllowsSubAccounts reports whether a garage on this plan may hold n sub-accounts
func (pp PlanPricing) AllowsSubAccounts(n int) bool {
	return pp.IncludedSubAccounts < 0 || n <= pp.IncludedSubAccounts
}

// NewSubscription builds the subscription row for a garage on a plan
func NewSubscription(garageID string, plan Plan, status domain.SubscriptionStatus, now time.Time) *domain.Subscription {
	return &domain.Subscription{
		GarageID:  garageID,
		Plan:      string(plan),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TrialEndsAt returns when the trial of a subscription started at created ends
func TrialEndsAt(created time.Time) time.Time {
	return created.AddDate(0, 0, DefaultTrialDays)
}
