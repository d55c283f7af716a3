package billing

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
)

// Usage is a subscription's standing for the current month.
type Usage struct {
	Plan        Plan `json:"plan"`
	Used        int  `json:"used"`
	Limit       int  `json:"limit"`
	Unlimited   bool `json:"unlimited"`
	Remaining   int  `json:"remaining"`
	CanGenerate bool `json:"can_generate"`
}

// UsageFor summarizes sub. Remaining is -1 for unlimited plans.
func UsageFor(sub model.Subscription) Usage {
	plan := Plan(sub.Plan)
	limit := Limit(plan)
	u := Usage{Plan: plan, Used: sub.LeadsUsedThisMonth, Limit: limit}
	if limit == Unlimited {
		u.Unlimited = true
		u.Remaining = Unlimited
		u.CanGenerate = true
		return u
	}
	u.Remaining = max(limit-sub.LeadsUsedThisMonth, 0)
	u.CanGenerate = u.Remaining > 0
	return u
}

// Allow clamps requested to what the month still permits.
func (u Usage) Allow(requested int) int {
	if requested <= 0 {
		return 0
	}
	if u.Unlimited {
		return requested
	}
	return min(requested, u.Remaining)
}

// ApplyReset zeroes the monthly counter once a month has passed since the
// last reset. It reports whether sub changed.
func ApplyReset(sub model.Subscription, now time.Time) (model.Subscription, bool) {
	if !now.After(sub.LeadsResetDate.AddDate(0, 1, 0)) {
		return sub, false
	}
	sub.LeadsUsedThisMonth = 0
	sub.LeadsResetDate = now.UTC()
	return sub, true
}

// SubscriptionStore is the persistence Quota needs.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	UpsertSubscription(ctx context.Context, sub model.Subscription) error
	IncrementLeadsUsed(ctx context.Context, userID string, n int) error
}

// Quota gates lead generation on the user's plan.
type Quota struct {
	store SubscriptionStore
	now   func() time.Time
}

// NewQuota creates a Quota backed by store.
func NewQuota(store SubscriptionStore) *Quota {
	return &Quota{store: store, now: time.Now}
}

// Check loads the user's subscription, persists a due monthly reset and
// returns the current usage.
func (q *Quota) Check(ctx context.Context, userID string) (Usage, error) {
	sub, err := q.store.GetSubscription(ctx, userID)
	if err != nil {
		return Usage{}, eris.Wrapf(err, "billing: get subscription %s", userID)
	}

	updated, reset := ApplyReset(*sub, q.now())
	if reset {
		if err := q.store.UpsertSubscription(ctx, updated); err != nil {
			return Usage{}, eris.Wrapf(err, "billing: reset usage %s", userID)
		}
		zap.L().Info("monthly lead usage reset",
			zap.String("user_id", userID),
			zap.Int("previous_used", sub.LeadsUsedThisMonth),
		)
	}
	return UsageFor(updated), nil
}

// Record adds n generated leads to the user's monthly usage.
func (q *Quota) Record(ctx context.Context, userID string, n int) error {
	if n <= 0 {
		return nil
	}
	return eris.Wrapf(q.store.IncrementLeadsUsed(ctx, userID, n), "billing: record usage %s", userID)
}
