package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = eris.New("store: not found")
	// ErrRunLogExists is returned when a user already has a run log for the day.
	ErrRunLogExists = eris.New("store: run log already exists")
)

// DefaultListLimit caps lead listings without an explicit limit.
const DefaultListLimit = 100

// Store defines the persistence interface for leads, user preferences,
// plan usage and autonomous run bookkeeping.
type Store interface {
	// Leads
	KnownPlaceIDs(ctx context.Context, userID string) ([]string, error)
	InsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error)
	GetLead(ctx context.Context, userID, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, userID string, filter model.LeadFilter) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, userID, leadID string, status model.LeadStatus, notes string) error

	// Settings
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	UpsertSettings(ctx context.Context, s model.UserSettings) error
	ListAutonomousUsers(ctx context.Context) ([]model.UserSettings, error)

	// Subscriptions
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	UpsertSubscription(ctx context.Context, sub model.Subscription) error
	IncrementLeadsUsed(ctx context.Context, userID string, n int) error

	// Autonomous run logs
	GetRunLog(ctx context.Context, userID, runDate string) (*model.RunLog, error)
	CreateRunLog(ctx context.Context, log model.RunLog) (*model.RunLog, error)
	MarkSummarySent(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// freeSubscription is what a user without a subscription row is on.
func freeSubscription(userID string) *model.Subscription {
	return &model.Subscription{UserID: userID, Plan: "free", Status: "active"}
}

// prepareLead fills the fields the store owns on insert.
func prepareLead(l model.Lead, now time.Time) model.Lead {
	l.ID = uuid.New().String()
	if l.Source == "" {
		l.Source = model.SourceGooglePlaces
	}
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	return l
}

func listLimit(filter model.LeadFilter) int {
	if filter.Limit <= 0 {
		return DefaultListLimit
	}
	return filter.Limit
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

type scannable interface {
	Scan(dest ...any) error
}

const leadColumns = `id, user_id, place_id, name, website, phone, address, source, score, status, notes, created_at, updated_at`

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.UserID, &l.PlaceID, &l.Name, &l.Website, &l.Phone, &l.Address,
		&l.Source, &l.Score, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan lead")
	}
	return &l, nil
}

const settingsColumns = `user_id, email, photographer_niche, target_locations, ideal_client_description,
	email_signature, daily_lead_target, daily_outreach_limit, autonomous_mode, updated_at`

func scanSettings(row scannable) (*model.UserSettings, error) {
	var s model.UserSettings
	err := row.Scan(&s.UserID, &s.Email, &s.PhotographerNiche, &s.TargetLocations, &s.IdealClientDescription,
		&s.EmailSignature, &s.DailyLeadTarget, &s.DailyOutreachLimit, &s.AutonomousMode, &s.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan settings")
	}
	return &s, nil
}

const runLogColumns = `id, user_id, run_date, leads_found, leads_contacted, summary_sent, created_at`

func scanRunLog(row scannable) (*model.RunLog, error) {
	var r model.RunLog
	err := row.Scan(&r.ID, &r.UserID, &r.RunDate, &r.LeadsFound, &r.LeadsContacted, &r.SummarySent, &r.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run log")
	}
	return &r, nil
}
