// Package billing maps subscriptions to monthly lead allowances.
package billing

import (
	"github.com/sells-group/lead-agent/internal/config"
)

// Plan names a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// Unlimited marks a plan without a monthly lead cap.
const Unlimited = -1

var monthlyLimits = map[Plan]int{
	PlanFree:    10,
	PlanPro:     200,
	PlanPremium: Unlimited,
}

// Limit returns the monthly lead allowance for p. Unknown plans get the
// free allowance.
func Limit(p Plan) int {
	if n, ok := monthlyLimits[p]; ok {
		return n
	}
	return monthlyLimits[PlanFree]
}

// Catalog resolves payment provider price ids to plans.
type Catalog struct {
	prices map[string]Plan
}

// NewCatalog builds a Catalog from configured price ids. Empty ids are ignored.
func NewCatalog(cfg config.BillingConfig) *Catalog {
	c := &Catalog{prices: make(map[string]Plan)}
	if cfg.ProPriceID != "" {
		c.prices[cfg.ProPriceID] = PlanPro
	}
	if cfg.PremiumPriceID != "" {
		c.prices[cfg.PremiumPriceID] = PlanPremium
	}
	return c
}

// PlanByPriceID returns the plan sold under priceID, or free when unknown.
func (c *Catalog) PlanByPriceID(priceID string) Plan {
	if p, ok := c.prices[priceID]; ok {
		return p
	}
	return PlanFree
}
