package plans

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is an account's subscription level.
type Tier string

const (
	// TierFree is the default tier for new and unknown accounts.
	TierFree Tier = "free"

	// TierBasic is the entry paid tier.
	TierBasic Tier = "basic"

	// TierPro is the professional tier.
	TierPro Tier = "pro"

	// TierEnterprise is the unlimited tier.
	TierEnterprise Tier = "enterprise"
)

// Unlimited is the sentinel limit used for tiers without a practical cap.
// It is a finite number so that remaining-quota arithmetic stays total.
const Unlimited = 99999

// Tiers returns all known tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierFree, TierBasic, TierPro, TierEnterprise}
}

// ParseTier converts a stored plan name to a Tier.
// Unknown, empty, or differently-cased values resolve to TierFree.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBasic:
		return TierBasic
	case TierPro:
		return TierPro
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}

func (t Tier) String() string {
	return string(t)
}

// Limits holds the per-period allowances of a tier.
type Limits struct {
	// Listings is the number of generations allowed per billing period.
	Listings int `json:"listings" yaml:"listings"`

	// Leads is the number of captured leads allowed per billing period.
	Leads int `json:"leads" yaml:"leads"`
}

// Plan describes a tier together with its display label and limits.
type Plan struct {
	Tier   Tier
	Label  string
	Limits Limits
}

var defaultPlans = map[Tier]Plan{
	TierFree:       {Tier: TierFree, Label: "Gratis", Limits: Limits{Listings: 5, Leads: 20}},
	TierBasic:      {Tier: TierBasic, Label: "Básico — $49/mes", Limits: Limits{Listings: 50, Leads: 200}},
	TierPro:        {Tier: TierPro, Label: "Pro — $149/mes", Limits: Limits{Listings: 200, Leads: 1000}},
	TierEnterprise: {Tier: TierEnterprise, Label: "Empresarial — $399/mes", Limits: Limits{Listings: Unlimited, Leads: Unlimited}},
}

// Registry is an immutable lookup from tier to plan.
// It is safe for concurrent use.
type Registry struct {
	plans map[Tier]Plan
}

// Override replaces the limits and optionally the label of one tier.
// Zero values keep the default.
type Override struct {
	Label    string
	Listings int
	Leads    int
}

// NewRegistry builds a registry from the default plan table with the given
// overrides applied. Overrides for unknown tiers or with negative limits are
// rejected.
func NewRegistry(overrides map[string]Override) (*Registry, error) {
	r := &Registry{plans: make(map[Tier]Plan, len(defaultPlans))}
	for tier, p := range defaultPlans {
		r.plans[tier] = p
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := overrides[name]
		tier := Tier(strings.ToLower(name))
		if !tier.Valid() {
			return nil, fmt.Errorf("unknown plan tier %q", name)
		}
		if o.Listings < 0 || o.Leads < 0 {
			return nil, fmt.Errorf("plan %q: limits must be non-negative", name)
		}

		p := r.plans[tier]
		if o.Label != "" {
			p.Label = o.Label
		}
		if o.Listings > 0 {
			p.Limits.Listings = o.Listings
		}
		if o.Leads > 0 {
			p.Limits.Leads = o.Leads
		}
		r.plans[tier] = p
	}

	return r, nil
}

// MustRegistry is like NewRegistry without overrides. It cannot fail.
func MustRegistry() *Registry {
	r, err := NewRegistry(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Plan returns the plan for a tier, falling back to the free plan.
func (r *Registry) Plan(t Tier) Plan {
	if p, ok := r.plans[t]; ok {
		return p
	}
	return r.plans[TierFree]
}

// LimitFor returns the number of listings allowed per period for a tier.
func (r *Registry) LimitFor(t Tier) int {
	return r.Plan(t).Limits.Listings
}

// Limits returns all per-period limits for a tier.
func (r *Registry) Limits(t Tier) Limits {
	return r.Plan(t).Limits
}

// Label returns the human-readable plan label shown to customers.
func (r *Registry) Label(t Tier) string {
	return r.Plan(t).Label
}

// All returns every plan in tier order.
func (r *Registry) All() []Plan {
	out := make([]Plan, 0, len(r.plans))
	for _, t := range Tiers() {
		out = append(out, r.plans[t])
	}
	return out
}
