package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/autonomous"
	"github.com/sells-group/lead-agent/internal/config"
)

func userErrors(n int) []autonomous.UserError {
	out := make([]autonomous.UserError, n)
	for i := range out {
		out[i] = autonomous.UserError{UserID: "u", Error: "boom"}
	}
	return out
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	alerts := a.Evaluate(&autonomous.Report{UsersProcessed: 18, LeadsFound: 40, Errors: userErrors(2)}, nil)
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_RunFailed(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	alerts := a.Evaluate(nil, errors.New("autonomous: list users: db down"))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDailyRunFailed, alerts[0].Type)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "db down")
}

func TestAlerter_Evaluate_UserFailureRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	alerts := a.Evaluate(&autonomous.Report{UsersProcessed: 6, LeadsFound: 12, Errors: userErrors(4)}, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertUserFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
	assert.Equal(t, 10, alerts[0].Details["visited"])
}

func TestAlerter_Evaluate_NoLeadsFound(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	alerts := a.Evaluate(&autonomous.Report{UsersProcessed: 7}, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertNoLeadsFound, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "7 users")
}

func TestAlerter_Evaluate_MultipleAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10})

	alerts := a.Evaluate(&autonomous.Report{UsersProcessed: 5, Errors: userErrors(5)}, nil)
	types := make(map[AlertType]bool)
	for _, a := range alerts {
		types[a.Type] = true
	}
	assert.Len(t, alerts, 2)
	assert.True(t, types[AlertUserFailureRate])
	assert.True(t, types[AlertNoLeadsFound])
}

func TestAlerter_Evaluate_MinimumUsersRequired(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10})

	// Only 3 users visited, below the minimum for rate alerts.
	alerts := a.Evaluate(&autonomous.Report{UsersProcessed: 1, Errors: userErrors(2)}, nil)
	assert.Empty(t, alerts)
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		err := json.NewDecoder(r.Body).Decode(&alert)
		require.NoError(t, err)
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})

	alerts := []Alert{
		{Type: AlertUserFailureRate, Severity: "high", Message: "test alert 1"},
		{Type: AlertNoLeadsFound, Severity: "medium", Message: "test alert 2"},
	}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: ""})

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertNoLeadsFound, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: "http://example.com"})

	sent := a.SendAlerts(context.Background(), nil)
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertDailyRunFailed, Message: "test"}})
	assert.Equal(t, 0, sent)
}

type stubRunner struct {
	report *autonomous.Report
	err    error
}

func (s stubRunner) RunDaily(context.Context, time.Time) (*autonomous.Report, error) {
	return s.report, s.err
}

func TestWatch_SendsAlertsAndPassesThrough(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	runErr := errors.New("list users failed")
	w := Watch(stubRunner{err: runErr}, NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL}))

	report, err := w.RunDaily(context.Background(), time.Now())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, runErr)
	assert.Equal(t, int32(1), received.Load())
}

func TestWatch_QuietRun(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
	}))
	defer ts.Close()

	want := &autonomous.Report{UsersProcessed: 2, LeadsFound: 4}
	w := Watch(stubRunner{report: want}, NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL, FailureRateThreshold: 0.1}))

	report, err := w.RunDaily(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Same(t, want, report)
	assert.Equal(t, int32(0), received.Load())
}
