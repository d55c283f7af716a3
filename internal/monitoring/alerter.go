// Package monitoring raises webhook alerts about autonomous daily runs.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/autonomous"
	"github.com/sells-group/lead-agent/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDailyRunFailed  AlertType = "daily_run_failed"
	AlertUserFailureRate AlertType = "user_failure_rate"
	AlertNoLeadsFound    AlertType = "no_leads_found"
)

// minUsersForRateAlerts keeps tiny runs from tripping rate alerts.
const minUsersForRateAlerts = 5

const webhookTimeout = 10 * time.Second

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates daily run reports against configured thresholds and
// sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	now    func() time.Time
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: webhookTimeout},
		now:    time.Now,
	}
}

// Evaluate checks a finished run and returns any alerts. runErr is the
// error RunDaily returned, if any.
func (a *Alerter) Evaluate(report *autonomous.Report, runErr error) []Alert {
	now := a.now().UTC()

	if runErr != nil {
		return []Alert{{
			Type:      AlertDailyRunFailed,
			Severity:  "critical",
			Message:   "Daily autonomous run aborted: " + runErr.Error(),
			Timestamp: now,
		}}
	}
	if report == nil {
		return nil
	}

	var alerts []Alert
	failed := len(report.Errors)
	visited := report.UsersProcessed + failed

	// Check per-user failure rate.
	if visited >= minUsersForRateAlerts {
		rate := float64(failed) / float64(visited)
		if rate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertUserFailureRate,
				Severity: "high",
				Message: fmt.Sprintf(
					"Daily run user failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d users)",
					rate*100, a.cfg.FailureRateThreshold*100, failed, visited,
				),
				Details: map[string]any{
					"failure_rate": rate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       failed,
					"visited":      visited,
				},
				Timestamp: now,
			})
		}
	}

	// Many users and not a single lead usually means the Places key or
	// quota is broken.
	if report.UsersProcessed >= minUsersForRateAlerts && report.LeadsFound == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertNoLeadsFound,
			Severity: "medium",
			Message:  fmt.Sprintf("Daily run found no leads for %d users", report.UsersProcessed),
			Details: map[string]any{
				"users_processed": report.UsersProcessed,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
