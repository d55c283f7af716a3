// Package metrics exposes Prometheus collectors for lead discovery, storage
// and outreach.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlacesCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadagent_places_calls_total",
			Help: "Google Places calls issued by the candidate selector",
		},
		[]string{"operation", "outcome"},
	)

	CandidatesSelected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadagent_candidates_selected",
			Help:    "Scored candidates returned per selection run",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
		[]string{"mode"},
	)

	LeadsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadagent_leads_stored_total",
			Help: "Leads persisted with status new",
		},
		[]string{"mode"},
	)

	OutreachSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadagent_outreach_emails_total",
			Help: "Outreach emails attempted",
		},
		[]string{"outcome"},
	)

	AutonomousUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadagent_autonomous_users_total",
			Help: "Users visited by the daily autonomous run",
		},
		[]string{"outcome"},
	)
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)
