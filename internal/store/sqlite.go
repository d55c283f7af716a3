package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-agent/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
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
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
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
	autonomous_mode          INTEGER NOT NULL DEFAULT 0,
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS user_subscriptions (
	user_id               TEXT PRIMARY KEY,
	plan                  TEXT NOT NULL DEFAULT 'free',
	subscription_status   TEXT NOT NULL DEFAULT 'active',
	leads_used_this_month INTEGER NOT NULL DEFAULT 0,
	leads_reset_date      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS autonomous_run_logs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	run_date        TEXT NOT NULL,
	leads_found     INTEGER NOT NULL DEFAULT 0,
	leads_contacted INTEGER NOT NULL DEFAULT 0,
	summary_sent    INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (user_id, run_date)
);

CREATE INDEX IF NOT EXISTS idx_leads_user_status ON leads(user_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_user_score ON leads(user_id, score DESC);
CREATE INDEX IF NOT EXISTS idx_user_settings_autonomous ON user_settings(autonomous_mode);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) KnownPlaceIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT place_id FROM leads WHERE user_id = ?`, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: known place ids for %s", userID)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: known place ids iterate")
}

func (s *SQLiteStore) InsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin insert leads")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var inserted []model.Lead
	for _, l := range leads {
		l = prepareLead(l, now)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id, place_id) DO NOTHING`,
			l.ID, l.UserID, l.PlaceID, l.Name, l.Website, l.Phone, l.Address,
			l.Source, l.Score, string(l.Status), l.Notes, l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert lead %s", l.PlaceID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, l)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit insert leads")
	}
	return inserted, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, userID, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ? AND user_id = ?`,
		leadID, userID,
	)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, userID string, filter model.LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY score DESC, created_at ASC, id ASC LIMIT ?`
	args = append(args, listLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
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
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, userID, leadID string, status model.LeadStatus, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, notes = CASE WHEN ? = '' THEN notes ELSE ? END, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(status), notes, notes, time.Now().UTC(), leadID, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`, userID)
	return scanSettings(row)
}

func (s *SQLiteStore) UpsertSettings(ctx context.Context, us model.UserSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			email = excluded.email,
			photographer_niche = excluded.photographer_niche,
			target_locations = excluded.target_locations,
			ideal_client_description = excluded.ideal_client_description,
			email_signature = excluded.email_signature,
			daily_lead_target = excluded.daily_lead_target,
			daily_outreach_limit = excluded.daily_outreach_limit,
			autonomous_mode = excluded.autonomous_mode,
			updated_at = excluded.updated_at`,
		us.UserID, us.Email, us.PhotographerNiche, us.TargetLocations, us.IdealClientDescription,
		us.EmailSignature, us.DailyLeadTarget, us.DailyOutreachLimit, us.AutonomousMode, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert settings %s", us.UserID)
}

func (s *SQLiteStore) ListAutonomousUsers(ctx context.Context) ([]model.UserSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE autonomous_mode = 1 ORDER BY user_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list autonomous users")
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
	return users, eris.Wrap(rows.Err(), "sqlite: list autonomous users iterate")
}

func (s *SQLiteStore) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, plan, subscription_status, leads_used_this_month, leads_reset_date
		 FROM user_subscriptions WHERE user_id = ?`, userID,
	).Scan(&sub.UserID, &sub.Plan, &sub.Status, &sub.LeadsUsedThisMonth, &sub.LeadsResetDate)
	if isNoRows(err) {
		return freeSubscription(userID), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get subscription %s", userID)
	}
	return &sub, nil
}

func (s *SQLiteStore) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_subscriptions (user_id, plan, subscription_status, leads_used_this_month, leads_reset_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			plan = excluded.plan,
			subscription_status = excluded.subscription_status,
			leads_used_this_month = excluded.leads_used_this_month,
			leads_reset_date = excluded.leads_reset_date`,
		sub.UserID, sub.Plan, sub.Status, sub.LeadsUsedThisMonth, sub.LeadsResetDate.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert subscription %s", sub.UserID)
}

func (s *SQLiteStore) IncrementLeadsUsed(ctx context.Context, userID string, n int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_subscriptions (user_id, leads_used_this_month, leads_reset_date) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			leads_used_this_month = leads_used_this_month + excluded.leads_used_this_month`,
		userID, n, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: increment leads used %s", userID)
}

func (s *SQLiteStore) GetRunLog(ctx context.Context, userID, runDate string) (*model.RunLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runLogColumns+` FROM autonomous_run_logs WHERE user_id = ? AND run_date = ?`,
		userID, runDate,
	)
	return scanRunLog(row)
}

func (s *SQLiteStore) CreateRunLog(ctx context.Context, rl model.RunLog) (*model.RunLog, error) {
	rl.ID = uuid.New().String()
	rl.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO autonomous_run_logs (`+runLogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, run_date) DO NOTHING`,
		rl.ID, rl.UserID, rl.RunDate, rl.LeadsFound, rl.LeadsContacted, rl.SummarySent, rl.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create run log for %s", rl.UserID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRunLogExists
	}
	return &rl, nil
}

func (s *SQLiteStore) MarkSummarySent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE autonomous_run_logs SET summary_sent = 1 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark summary sent %s", id)
	}
	return checkRowsAffected(res, "run log", id)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
