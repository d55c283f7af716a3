package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/model"
)

func TestLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, Limit(PlanFree))
	assert.Equal(t, 200, Limit(PlanPro))
	assert.Equal(t, Unlimited, Limit(PlanPremium))
	assert.Equal(t, 10, Limit(Plan("enterprise")))
}

func TestCatalog_PlanByPriceID(t *testing.T) {
	t.Parallel()

	c := NewCatalog(config.BillingConfig{ProPriceID: "price_pro", PremiumPriceID: "price_premium"})
	assert.Equal(t, PlanPro, c.PlanByPriceID("price_pro"))
	assert.Equal(t, PlanPremium, c.PlanByPriceID("price_premium"))
	assert.Equal(t, PlanFree, c.PlanByPriceID("price_unknown"))
	assert.Equal(t, PlanFree, NewCatalog(config.BillingConfig{}).PlanByPriceID(""))
}

func TestUsageFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sub       model.Subscription
		remaining int
		can       bool
		allow8    int
	}{
		{"free fresh", model.Subscription{Plan: "free"}, 10, true, 8},
		{"free partly used", model.Subscription{Plan: "free", LeadsUsedThisMonth: 7}, 3, true, 3},
		{"free exhausted", model.Subscription{Plan: "free", LeadsUsedThisMonth: 10}, 0, false, 0},
		{"free overdrawn", model.Subscription{Plan: "free", LeadsUsedThisMonth: 14}, 0, false, 0},
		{"pro", model.Subscription{Plan: "pro", LeadsUsedThisMonth: 50}, 150, true, 8},
		{"premium", model.Subscription{Plan: "premium", LeadsUsedThisMonth: 5000}, Unlimited, true, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := UsageFor(tt.sub)
			assert.Equal(t, tt.remaining, u.Remaining)
			assert.Equal(t, tt.can, u.CanGenerate)
			assert.Equal(t, tt.allow8, u.Allow(8))
		})
	}
}

func TestUsage_AllowNonPositive(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, UsageFor(model.Subscription{Plan: "premium"}).Allow(0))
	assert.Equal(t, 0, UsageFor(model.Subscription{Plan: "free"}).Allow(-3))
}

func TestApplyReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	sub := model.Subscription{LeadsUsedThisMonth: 9, LeadsResetDate: now.AddDate(0, 0, -20)}
	got, reset := ApplyReset(sub, now)
	assert.False(t, reset)
	assert.Equal(t, 9, got.LeadsUsedThisMonth)

	sub.LeadsResetDate = now.AddDate(0, -1, -1)
	got, reset = ApplyReset(sub, now)
	assert.True(t, reset)
	assert.Equal(t, 0, got.LeadsUsedThisMonth)
	assert.Equal(t, now, got.LeadsResetDate)

	// A never-reset subscription resets on first use.
	got, reset = ApplyReset(model.Subscription{Plan: "free"}, now)
	assert.True(t, reset)
	assert.Equal(t, now, got.LeadsResetDate)
}

type fakeSubs struct {
	sub       *model.Subscription
	getErr    error
	upserted  []model.Subscription
	increment map[string]int
}

func (f *fakeSubs) GetSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.sub
	cp.UserID = userID
	return &cp, nil
}

func (f *fakeSubs) UpsertSubscription(_ context.Context, sub model.Subscription) error {
	f.upserted = append(f.upserted, sub)
	return nil
}

func (f *fakeSubs) IncrementLeadsUsed(_ context.Context, userID string, n int) error {
	if f.increment == nil {
		f.increment = make(map[string]int)
	}
	f.increment[userID] += n
	return nil
}

func TestQuota_CheckPersistsReset(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	subs := &fakeSubs{sub: &model.Subscription{
		Plan:               "free",
		LeadsUsedThisMonth: 10,
		LeadsResetDate:     now.AddDate(0, -2, 0),
	}}
	q := NewQuota(subs)
	q.now = func() time.Time { return now }

	u, err := q.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, u.CanGenerate)
	assert.Equal(t, 10, u.Remaining)
	require.Len(t, subs.upserted, 1)
	assert.Equal(t, "u1", subs.upserted[0].UserID)
	assert.Equal(t, 0, subs.upserted[0].LeadsUsedThisMonth)
}

func TestQuota_CheckWithinMonth(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	subs := &fakeSubs{sub: &model.Subscription{
		Plan:               "free",
		LeadsUsedThisMonth: 10,
		LeadsResetDate:     now.AddDate(0, 0, -3),
	}}
	q := NewQuota(subs)
	q.now = func() time.Time { return now }

	u, err := q.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, u.CanGenerate)
	assert.Empty(t, subs.upserted)
}

func TestQuota_CheckError(t *testing.T) {
	q := NewQuota(&fakeSubs{getErr: errors.New("db down")})

	_, err := q.Check(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing: get subscription u1")
}

func TestQuota_Record(t *testing.T) {
	subs := &fakeSubs{}
	q := NewQuota(subs)

	require.NoError(t, q.Record(context.Background(), "u1", 4))
	require.NoError(t, q.Record(context.Background(), "u1", 0))
	assert.Equal(t, 4, subs.increment["u1"])
}
