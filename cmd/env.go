package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/autonomous"
	"github.com/sells-group/lead-agent/internal/billing"
	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/leadgen"
	"github.com/sells-group/lead-agent/internal/monitoring"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/resilience"
	"github.com/sells-group/lead-agent/internal/store"
	"github.com/sells-group/lead-agent/pkg/google"
)

// appEnv holds the initialized store and services shared by the
// serve/generate/daily commands.
type appEnv struct {
	Store    store.Store
	Quota    *billing.Quota
	Selector *discovery.Selector
	Outreach *outreach.Service
	Leadgen  *leadgen.Service
	Daily    autonomous.DailyRunner
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv validates config for mode and wires every service. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	selector, err := initSelector()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sender, err := initSender(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	quota := billing.NewQuota(st)
	out := outreach.NewService(st, sender, cfg.Outreach.FromEmail, cfg.Outreach.DashboardURL)
	runner := autonomous.NewRunner(st, quota, selector, out, cfg.Discovery.Autonomous, cfg.Cron.Concurrency)

	return &appEnv{
		Store:    st,
		Quota:    quota,
		Selector: selector,
		Outreach: out,
		Leadgen:  leadgen.NewService(st, quota, selector, cfg.Discovery.Interactive),
		Daily:    monitoring.Watch(runner, monitoring.NewAlerter(cfg.Monitoring)),
	}, nil
}

func initSelector() (*discovery.Selector, error) {
	places := google.NewClient(cfg.Google.Key,
		google.WithBaseURL(cfg.Google.BaseURL),
		google.WithRetry(resilience.FromRetryConfig(
			cfg.Google.Retry.MaxAttempts,
			cfg.Google.Retry.InitialBackoffMs,
			cfg.Google.Retry.MaxBackoffMs,
		)),
	)

	opts := []discovery.Option{discovery.WithRateLimit(cfg.Discovery.RateLimit)}
	if path := cfg.Discovery.SearchTermsFile; path != "" {
		terms, err := discovery.LoadSearchTerms(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, discovery.WithSearchTerms(terms))
		zap.L().Info("search terms loaded", zap.String("path", path), zap.Int("niches", len(terms)))
	}
	return discovery.NewSelector(discovery.NewPlacesSearch(places), opts...), nil
}

func initSender(ctx context.Context) (outreach.Sender, error) {
	if !cfg.Outreach.Enabled {
		zap.L().Warn("outreach disabled, emails will be logged and leads left new")
		return outreach.LogSender{}, nil
	}
	sender, err := outreach.NewSESSender(ctx, cfg.Outreach.AWSRegion)
	if err != nil {
		return nil, err
	}
	zap.L().Info("ses outreach enabled", zap.String("region", cfg.Outreach.AWSRegion))
	return sender, nil
}
