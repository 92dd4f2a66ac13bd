package domain

import "fmt"

// PlanTier is the subscription tier a user is entitled to.
// Tiers are ordered by capability: free < leader < founder.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanLeader  PlanTier = "leader"
	PlanFounder PlanTier = "founder"
)

// rank maps tiers to their capability order. Unknown tiers rank below free.
func (p PlanTier) rank() int {
	switch p {
	case PlanFree:
		return 1
	case PlanLeader:
		return 2
	case PlanFounder:
		return 3
	default:
		return 0
	}
}

// Meets reports whether this tier grants at least the capability of required.
func (p PlanTier) Meets(required PlanTier) bool {
	return p.rank() >= required.rank()
}

// ParsePlanTier validates a plan string from the backend or the shell.
func ParsePlanTier(s string) (PlanTier, error) {
	switch PlanTier(s) {
	case PlanFree, PlanLeader, PlanFounder:
		return PlanTier(s), nil
	}
	return "", fmt.Errorf("unknown plan tier %q", s)
}

// Profile is the authoritative entitlement record for a user, owned by
// the backend and replaced wholesale on every refresh.
type Profile struct {
	ID               string   `json:"id"`
	Plan             PlanTier `json:"plan"`
	StripeCustomerID string   `json:"stripe_customer_id,omitempty"`
}

// HasBillingLink reports whether the profile is linked to a web billing customer.
func (p *Profile) HasBillingLink() bool {
	return p != nil && p.StripeCustomerID != ""
}

// SelectProfile picks the authoritative record when the backing store
// yields multiple rows for one user (a known upstream duplication
// defect): the row with a billing link wins, otherwise the first row.
// Returns nil for an empty slice.
func SelectProfile(rows []Profile) *Profile {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].HasBillingLink() {
			return &rows[i]
		}
	}
	return &rows[0]
}
