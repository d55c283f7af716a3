package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/autonomous"
)

// WatchedRunner evaluates every daily run it delegates and sends alerts.
type WatchedRunner struct {
	inner   autonomous.DailyRunner
	alerter *Alerter
}

// Watch wraps runner so each run is checked by alerter.
func Watch(runner autonomous.DailyRunner, alerter *Alerter) *WatchedRunner {
	return &WatchedRunner{inner: runner, alerter: alerter}
}

// RunDaily runs the wrapped runner and reports threshold breaches. Alert
// delivery never changes the run's result.
func (w *WatchedRunner) RunDaily(ctx context.Context, now time.Time) (*autonomous.Report, error) {
	report, err := w.inner.RunDaily(ctx, now)

	alerts := w.alerter.Evaluate(report, err)
	if len(alerts) > 0 {
		sent := w.alerter.SendAlerts(context.WithoutCancel(ctx), alerts)
		zap.L().Info("monitoring: daily run alerts",
			zap.Int("alerts_triggered", len(alerts)),
			zap.Int("alerts_sent", sent),
		)
	}
	return report, err
}
