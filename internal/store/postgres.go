package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/db"
	"github.com/sells-group/lead-agent/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgKnownPlaceIDs = `SELECT place_id FROM leads WHERE user_id = $1`
	pgInsertLead    = `INSERT INTO leads (` + leadColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, place_id) DO NOTHING`
	pgGetLead     = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND user_id = $2`
	pgGetSettings = `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`
	pgGetRunLog   = `SELECT ` + runLogColumns + ` FROM autonomous_run_logs WHERE user_id = $1 AND run_date = $2`
)

// preparedStatements are prepared on each new connection under their own
// text, so plain Exec/Query calls with the same SQL hit the prepared plan.
var preparedStatements = []string{
	pgKnownPlaceIDs,
	pgInsertLead,
	pgGetLead,
	pgGetSettings,
	pgGetRunLog,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for _, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, sql, sql); err != nil {
				return eris.Wrap(err, "postgres: prepare statement")
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	place_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	website    TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT 'google_places',
	score      INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'new',
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, place_id)
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id                  TEXT PRIMARY KEY,
	email                    TEXT NOT NULL DEFAULT '',
	photographer_niche       TEXT NOT NULL DEFAULT '',
	target_locations         TEXT NOT NULL DEFAULT '',
	ideal_client_description TEXT NOT NULL DEFAULT '',
	email_signature          TEXT NOT NULL DEFAULT '',
	daily_lead_target        INTEGER NOT NULL DEFAULT 10,
	daily_outreach_limit     INTEGER NOT NULL DEFAULT 5,
	autonomous_mode          BOOLEAN NOT NULL DEFAULT false,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_subscriptions (
	user_id               TEXT PRIMARY KEY,
	plan                  TEXT NOT NULL DEFAULT 'free',
	subscription_status   TEXT NOT NULL DEFAULT 'active',
	leads_used_this_month INTEGER NOT NULL DEFAULT 0,
	leads_reset_date      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS autonomous_run_logs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id         TEXT NOT NULL,
	run_date        TEXT NOT NULL,
	leads_found     INTEGER NOT NULL DEFAULT 0,
	leads_contacted INTEGER NOT NULL DEFAULT 0,
	summary_sent    BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, run_date)
);

CREATE INDEX IF NOT EXISTS idx_leads_user_status ON leads(user_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_user_score ON leads(user_id, score DESC);
CREATE INDEX IF NOT EXISTS idx_user_settings_autonomous ON user_settings(autonomous_mode) WHERE autonomous_mode;
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) KnownPlaceIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, pgKnownPlaceIDs, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: known place ids for %s", userID)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, eris.Wrap(err, "postgres: collect place ids")
}

func (s *PostgresStore) InsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var inserted []model.Lead
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, l := range leads {
			l = prepareLead(l, now)
			tag, err := tx.Exec(ctx, pgInsertLead,
				l.ID, l.UserID, l.PlaceID, l.Name, l.Website, l.Phone, l.Address,
				l.Source, l.Score, string(l.Status), l.Notes, l.CreatedAt, l.UpdatedAt,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: insert lead %s", l.PlaceID)
			}
			if tag.RowsAffected() > 0 {
				inserted = append(inserted, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, userID, leadID string) (*model.Lead, error) {
	return scanLead(s.pool.QueryRow(ctx, pgGetLead, leadID, userID))
}

func (s *PostgresStore) ListLeads(ctx context.Context, userID string, filter model.LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, listLimit(filter))
	query += fmt.Sprintf(` ORDER BY score DESC, created_at ASC, id ASC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, userID, leadID string, status model.LeadStatus, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, notes = COALESCE(NULLIF($2, ''), notes), updated_at = $3
		 WHERE id = $4 AND user_id = $5`,
		string(status), notes, time.Now().UTC(), leadID, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", leadID)
	}
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	return scanSettings(s.pool.QueryRow(ctx, pgGetSettings, userID))
}

func (s *PostgresStore) UpsertSettings(ctx context.Context, us model.UserSettings) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			photographer_niche = EXCLUDED.photographer_niche,
			target_locations = EXCLUDED.target_locations,
			ideal_client_description = EXCLUDED.ideal_client_description,
			email_signature = EXCLUDED.email_signature,
			daily_lead_target = EXCLUDED.daily_lead_target,
			daily_outreach_limit = EXCLUDED.daily_outreach_limit,
			autonomous_mode = EXCLUDED.autonomous_mode,
			updated_at = EXCLUDED.updated_at`,
		us.UserID, us.Email, us.PhotographerNiche, us.TargetLocations, us.IdealClientDescription,
		us.EmailSignature, us.DailyLeadTarget, us.DailyOutreachLimit, us.AutonomousMode, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert settings %s", us.UserID)
}

func (s *PostgresStore) ListAutonomousUsers(ctx context.Context) ([]model.UserSettings, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE autonomous_mode ORDER BY user_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list autonomous users")
	}
	defer rows.Close()

	var users []model.UserSettings
	for rows.Next() {
		us, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *us)
	}
	return users, eris.Wrap(rows.Err(), "postgres: list autonomous users iterate")
}

func (s *PostgresStore) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, plan, subscription_status, leads_used_this_month, leads_reset_date
		 FROM user_subscriptions WHERE user_id = $1`, userID,
	).Scan(&sub.UserID, &sub.Plan, &sub.Status, &sub.LeadsUsedThisMonth, &sub.LeadsResetDate)
	if isNoRows(err) {
		return freeSubscription(userID), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get subscription %s", userID)
	}
	return &sub, nil
}

func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_subscriptions (user_id, plan, subscription_status, leads_used_this_month, leads_reset_date)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			subscription_status = EXCLUDED.subscription_status,
			leads_used_this_month = EXCLUDED.leads_used_this_month,
			leads_reset_date = EXCLUDED.leads_reset_date`,
		sub.UserID, sub.Plan, sub.Status, sub.LeadsUsedThisMonth, sub.LeadsResetDate.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert subscription %s", sub.UserID)
}

func (s *PostgresStore) IncrementLeadsUsed(ctx context.Context, userID string, n int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_subscriptions (user_id, leads_used_this_month, leads_reset_date) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
			leads_used_this_month = user_subscriptions.leads_used_this_month + EXCLUDED.leads_used_this_month`,
		userID, n, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: increment leads used %s", userID)
}

func (s *PostgresStore) GetRunLog(ctx context.Context, userID, runDate string) (*model.RunLog, error) {
	return scanRunLog(s.pool.QueryRow(ctx, pgGetRunLog, userID, runDate))
}

func (s *PostgresStore) CreateRunLog(ctx context.Context, rl model.RunLog) (*model.RunLog, error) {
	rl.ID = uuid.New().String()
	rl.CreatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO autonomous_run_logs (`+runLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, run_date) DO NOTHING`,
		rl.ID, rl.UserID, rl.RunDate, rl.LeadsFound, rl.LeadsContacted, rl.SummarySent, rl.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create run log for %s", rl.UserID)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRunLogExists
	}
	return &rl, nil
}

func (s *PostgresStore) MarkSummarySent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE autonomous_run_logs SET summary_sent = true WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark summary sent %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run log %s", id)
	}
	return nil
}
