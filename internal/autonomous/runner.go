// Package autonomous runs the once-a-day lead discovery and outreach pass
// for every user who turned on autonomous mode.
package autonomous

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-agent/internal/billing"
	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/leadgen"
	"github.com/sells-group/lead-agent/internal/metrics"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/store"
)

const defaultConcurrency = 4

var (
	errNoEmail      = eris.New("autonomous: no email on file")
	errLimitReached = eris.New("autonomous: monthly limit reached")
)

// Store is the persistence a daily run needs.
type Store interface {
	ListAutonomousUsers(ctx context.Context) ([]model.UserSettings, error)
	KnownPlaceIDs(ctx context.Context, userID string) ([]string, error)
	InsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error)
	GetRunLog(ctx context.Context, userID, runDate string) (*model.RunLog, error)
	CreateRunLog(ctx context.Context, log model.RunLog) (*model.RunLog, error)
	MarkSummarySent(ctx context.Context, id string) error
}

// Gatherer collects every new scored candidate a budget turns up.
type Gatherer interface {
	Gather(ctx context.Context, prefs discovery.Preferences, b discovery.Budget) ([]discovery.Candidate, error)
}

// Outreach contacts leads and reports back to the photographer.
type Outreach interface {
	ContactTop(ctx context.Context, settings model.UserSettings, limit int) (int, error)
	SendSummary(ctx context.Context, settings model.UserSettings, found, contacted int) error
}

// UserError is a per-user failure recorded in a Report.
type UserError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// Report summarizes one daily run across all users.
type Report struct {
	UsersProcessed int         `json:"users_processed"`
	UsersSkipped   int         `json:"users_skipped"`
	LeadsFound     int         `json:"total_leads_found"`
	OutreachSent   int         `json:"total_outreach_sent"`
	Errors         []UserError `json:"errors"`
}

// Runner executes daily runs.
type Runner struct {
	store       Store
	quota       leadgen.Quota
	gatherer    Gatherer
	outreach    Outreach
	budget      discovery.Budget
	concurrency int

	mu sync.Mutex // serializes RunDaily
}

// NewRunner creates a Runner. concurrency bounds how many users are
// processed at once.
func NewRunner(st Store, quota leadgen.Quota, gatherer Gatherer, out Outreach, budget discovery.Budget, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Runner{
		store:       st,
		quota:       quota,
		gatherer:    gatherer,
		outreach:    out,
		budget:      budget,
		concurrency: concurrency,
	}
}

type userOutcome struct {
	skipped   bool
	found     int
	contacted int
}

// RunDaily processes every autonomous user for the UTC day of now. A user
// already logged for that day is skipped. Per-user failures land in the
// report; only failing to list users aborts the run.
func (r *Runner) RunDaily(ctx context.Context, now time.Time) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runDate := model.RunDate(now)
	log := zap.L().With(zap.String("run_date", runDate))

	users, err := r.store.ListAutonomousUsers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "autonomous: list users")
	}
	log.Info("daily run starting", zap.Int("users", len(users)))

	report := &Report{Errors: []UserError{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, u := range users {
		g.Go(func() error {
			out, err := r.runUser(gctx, u, runDate)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				metrics.AutonomousUsers.WithLabelValues(metrics.OutcomeError).Inc()
				report.Errors = append(report.Errors, UserError{UserID: u.UserID, Error: err.Error()})
				log.Warn("user run failed", zap.String("user_id", u.UserID), zap.Error(err))
			case out.skipped:
				metrics.AutonomousUsers.WithLabelValues(metrics.OutcomeSkipped).Inc()
				report.UsersSkipped++
			default:
				metrics.AutonomousUsers.WithLabelValues(metrics.OutcomeOK).Inc()
				report.UsersProcessed++
				report.LeadsFound += out.found
				report.OutreachSent += out.contacted
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("daily run complete",
		zap.Int("processed", report.UsersProcessed),
		zap.Int("skipped", report.UsersSkipped),
		zap.Int("leads_found", report.LeadsFound),
		zap.Int("outreach_sent", report.OutreachSent),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (r *Runner) runUser(ctx context.Context, settings model.UserSettings, runDate string) (userOutcome, error) {
	userID := settings.UserID
	log := zap.L().With(zap.String("user_id", userID), zap.String("run_date", runDate))

	if settings.Email == "" {
		return userOutcome{}, errNoEmail
	}

	usage, err := r.quota.Check(ctx, userID)
	if err != nil {
		return userOutcome{}, err
	}
	if !usage.CanGenerate {
		return userOutcome{}, errLimitReached
	}

	existing, err := r.store.GetRunLog(ctx, userID, runDate)
	if err != nil {
		return userOutcome{}, eris.Wrap(err, "autonomous: get run log")
	}
	if existing != nil {
		log.Debug("already ran today")
		return userOutcome{skipped: true}, nil
	}

	found, err := r.discover(ctx, settings, usage)
	if err != nil {
		return userOutcome{}, err
	}

	contacted, err := r.outreach.ContactTop(ctx, settings, settings.OutreachLimit())
	if err != nil {
		log.Warn("outreach failed", zap.Error(err))
	}

	runLog, err := r.store.CreateRunLog(ctx, model.RunLog{
		UserID:         userID,
		RunDate:        runDate,
		LeadsFound:     found,
		LeadsContacted: contacted,
	})
	if errors.Is(err, store.ErrRunLogExists) {
		// Another run claimed the day between our check and now.
		return userOutcome{skipped: true}, nil
	}
	if err != nil {
		return userOutcome{}, eris.Wrap(err, "autonomous: create run log")
	}

	if found > 0 || contacted > 0 {
		if err := r.outreach.SendSummary(ctx, settings, found, contacted); errors.Is(err, outreach.ErrDeliveryDisabled) {
			log.Debug("summary email skipped, delivery disabled")
		} else if err != nil {
			log.Warn("summary email failed", zap.Error(err))
		} else if err := r.store.MarkSummarySent(ctx, runLog.ID); err != nil {
			log.Warn("mark summary sent failed", zap.Error(err))
		}
	}

	log.Info("user run complete", zap.Int("leads_found", found), zap.Int("contacted", contacted))
	return userOutcome{found: found, contacted: contacted}, nil
}

// discover gathers, stores and bills new leads, returning how many were stored.
func (r *Runner) discover(ctx context.Context, settings model.UserSettings, usage billing.Usage) (int, error) {
	userID := settings.UserID

	prefs, err := leadgen.Preferences(settings)
	if errors.Is(err, leadgen.ErrNotConfigured) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	allowed := usage.Allow(min(settings.LeadTarget(), discovery.HardMaxCount))
	if allowed <= 0 {
		return 0, nil
	}
	prefs.DesiredCount = allowed

	known, err := r.store.KnownPlaceIDs(ctx, userID)
	if err != nil {
		return 0, eris.Wrap(err, "autonomous: known place ids")
	}
	prefs.Known = discovery.NewKnownSet(known...)

	candidates, err := r.gatherer.Gather(ctx, prefs, r.budget)
	if err != nil {
		return 0, eris.Wrap(err, "autonomous: gather candidates")
	}
	if len(candidates) > allowed {
		candidates = candidates[:allowed]
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	inserted, err := r.store.InsertLeads(ctx, leadgen.ToLeads(userID, candidates))
	if err != nil {
		return 0, eris.Wrap(err, "autonomous: save leads")
	}
	if len(inserted) > 0 {
		metrics.LeadsStored.WithLabelValues(r.budget.Mode).Add(float64(len(inserted)))
		if err := r.quota.Record(ctx, userID, len(inserted)); err != nil {
			zap.L().Error("record lead usage failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return len(inserted), nil
}

// String renders a one-line summary for CLI output.
func (r Report) String() string {
	return fmt.Sprintf("processed=%d skipped=%d leads_found=%d outreach_sent=%d errors=%d",
		r.UsersProcessed, r.UsersSkipped, r.LeadsFound, r.OutreachSent, len(r.Errors))
}
