package autonomous

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSchedule runs once a day at 09:00 server time.
const DefaultSchedule = "0 9 * * *"

// DailyRunner is what the scheduler triggers.
type DailyRunner interface {
	RunDaily(ctx context.Context, now time.Time) (*Report, error)
}

// Scheduler triggers a DailyRunner on a cron expression.
type Scheduler struct {
	cron     *cron.Cron
	runner   DailyRunner
	schedule string
	entryID  cron.EntryID
	ctx      context.Context
	cancel   context.CancelFunc
	now      func() time.Time
}

// NewScheduler validates schedule and registers the daily job. An empty
// schedule uses DefaultSchedule.
func NewScheduler(runner DailyRunner, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, eris.Wrapf(err, "autonomous: parse schedule %q", schedule)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		runner:   runner,
		schedule: schedule,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	id, err := s.cron.AddFunc(schedule, s.trigger)
	if err != nil {
		cancel()
		return nil, eris.Wrap(err, "autonomous: register daily job")
	}
	s.entryID = id
	return s, nil
}

// Start begins firing on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("daily scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.Next()),
	)
}

// Next returns the next time the job fires. Zero until Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Stop halts the schedule, cancels an in-flight run and waits for it.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	zap.L().Info("daily scheduler stopped")
}

func (s *Scheduler) trigger() {
	started := s.now()
	report, err := s.runner.RunDaily(s.ctx, started)
	if err != nil {
		zap.L().Error("scheduled daily run failed", zap.Error(err))
		return
	}
	zap.L().Info("scheduled daily run finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Stringer("report", report),
	)
}
