// Package postgres implements store.Store on top of database/sql and
// lib/pq, grounded on the teacher's PostgresDiffStorage: same
// sql.Open("postgres", dsn) + PingContext startup check, same
// CREATE TABLE IF NOT EXISTS schema init, same $N placeholder queries and
// ON CONFLICT ... RETURNING id upsert idiom.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sportfeed/aggregator/internal/dedup"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/store"
)

// Store is the lib/pq-backed store.Store implementation.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens dsn, verifies connectivity, and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("postgres: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sports (
		id SERIAL PRIMARY KEY,
		slug VARCHAR(100) UNIQUE NOT NULL,
		name VARCHAR(200) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true
	);

	CREATE TABLE IF NOT EXISTS competitions (
		id SERIAL PRIMARY KEY,
		sport_id INTEGER NOT NULL REFERENCES sports(id),
		name VARCHAR(300) NOT NULL,
		external_flashscore_id VARCHAR(100)
	);

	CREATE TABLE IF NOT EXISTS teams (
		id SERIAL PRIMARY KEY,
		name VARCHAR(300) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS team_aliases (
		id SERIAL PRIMARY KEY,
		team_id INTEGER NOT NULL REFERENCES teams(id),
		alias VARCHAR(300) NOT NULL,
		source VARCHAR(100) NOT NULL,
		UNIQUE(alias, source)
	);

	CREATE TABLE IF NOT EXISTS events (
		id SERIAL PRIMARY KEY,
		sport_id INTEGER NOT NULL REFERENCES sports(id),
		competition_id INTEGER,
		competition_name VARCHAR(300),
		home_team_id INTEGER REFERENCES teams(id),
		away_team_id INTEGER REFERENCES teams(id),
		home_team_name VARCHAR(300) NOT NULL,
		away_team_name VARCHAR(300) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'scheduled',
		home_score INTEGER,
		away_score INTEGER,
		period VARCHAR(30),
		minute INTEGER,
		external_ids JSONB NOT NULL DEFAULT '{}',
		primary_source VARCHAR(100) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_sport_start ON events(sport_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);

	CREATE TABLE IF NOT EXISTS markets (
		id SERIAL PRIMARY KEY,
		event_id INTEGER NOT NULL REFERENCES events(id),
		type VARCHAR(50) NOT NULL,
		line DOUBLE PRECISION,
		is_suspended BOOLEAN NOT NULL DEFAULT false,
		is_main_market BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id SERIAL PRIMARY KEY,
		market_id INTEGER NOT NULL REFERENCES markets(id),
		name VARCHAR(100) NOT NULL,
		odds DOUBLE PRECISION NOT NULL,
		previous_odds DOUBLE PRECISION,
		is_winner BOOLEAN
	);

	CREATE TABLE IF NOT EXISTS scraper_runs (
		id TEXT PRIMARY KEY,
		job_type VARCHAR(50) NOT NULL,
		source VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		duration_ms BIGINT,
		items_processed INTEGER NOT NULL DEFAULT 0,
		items_created INTEGER NOT NULL DEFAULT 0,
		items_updated INTEGER NOT NULL DEFAULT 0,
		items_failed INTEGER NOT NULL DEFAULT 0,
		sport_stats JSONB NOT NULL DEFAULT '{}',
		error_message TEXT,
		lambda_request_id VARCHAR(100)
	);
	CREATE INDEX IF NOT EXISTS idx_scraper_runs_job_type ON scraper_runs(job_type, started_at DESC);

	CREATE TABLE IF NOT EXISTS scraper_alerts (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		alert_type VARCHAR(50) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		message TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		acknowledged_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scraper_alerts_dedup ON scraper_alerts(alert_type, created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// --- normalize.TeamStore ---

func (s *Store) FindAlias(ctx context.Context, alias, source string) (int64, bool, error) {
	var teamID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT team_id FROM team_aliases WHERE alias = $1 AND source = $2`,
		alias, source,
	).Scan(&teamID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find alias: %w", err)
	}
	return teamID, true, nil
}

func (s *Store) FindByNormalizedName(ctx context.Context, name string) (int64, bool, error) {
	var teamID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM teams WHERE LOWER(name) = LOWER($1)`, name).Scan(&teamID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find team by name: %w", err)
	}
	return teamID, true, nil
}

func (s *Store) AllTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("postgres: all teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTeam(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO teams (name, created_at) VALUES ($1, NOW()) RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create team: %w", err)
	}
	return id, nil
}

func (s *Store) CreateAlias(ctx context.Context, teamID int64, alias, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO team_aliases (team_id, alias, source) VALUES ($1, $2, $3)
		 ON CONFLICT (alias, source) DO NOTHING`,
		teamID, alias, source,
	)
	if err != nil {
		return fmt.Errorf("postgres: create alias: %w", err)
	}
	return nil
}

// --- dedup.EventStore ---

func (s *Store) FindByExternalID(ctx context.Context, sport, source, externalID string) (int64, string, bool, error) {
	var eventID int64
	var matchedSource string
	err := s.db.QueryRowContext(ctx,
		`SELECT e.id, e.primary_source FROM events e JOIN sports sp ON sp.id = e.sport_id
		 WHERE sp.slug = $1 AND e.external_ids->>$2 = $3`,
		sport, source, externalID,
	).Scan(&eventID, &matchedSource)
	if err == sql.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, fmt.Errorf("postgres: find by external id: %w", err)
	}
	return eventID, matchedSource, true, nil
}

func (s *Store) CandidatesInWindow(ctx context.Context, sport string, start time.Time, window time.Duration) ([]dedup.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.home_team_name, e.away_team_name, e.start_time, e.primary_source
		 FROM events e JOIN sports sp ON sp.id = e.sport_id
		 WHERE sp.slug = $1 AND e.start_time BETWEEN $2 AND $3`,
		sport, start.Add(-window), start.Add(window),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: candidates in window: %w", err)
	}
	defer rows.Close()

	var out []dedup.Candidate
	for rows.Next() {
		var c dedup.Candidate
		if err := rows.Scan(&c.EventID, &c.HomeTeam, &c.AwayTeam, &c.StartTime, &c.Source); err != nil {
			return nil, fmt.Errorf("postgres: scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AttachExternalID(ctx context.Context, eventID int64, source, externalID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET external_ids = jsonb_set(external_ids, ARRAY[$2], to_jsonb($3::text)) WHERE id = $1`,
		eventID, source, externalID,
	)
	if err != nil {
		return fmt.Errorf("postgres: attach external id: %w", err)
	}
	return nil
}

func (s *Store) InsertScheduledEvent(ctx context.Context, ev dedup.NewEvent) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO events (sport_id, competition_name, home_team_id, away_team_id,
			home_team_name, away_team_name, start_time, status, external_ids, primary_source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled', jsonb_build_object($8::text, $9::text), $8)
		 RETURNING id`,
		ev.SportID, ev.Competition, ev.HomeTeamID, ev.AwayTeamID,
		ev.HomeTeamName, ev.AwayTeamName, ev.StartTime, ev.Source, ev.ExternalID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert scheduled event: %w", err)
	}
	return id, nil
}

// --- store.Store extras ---

func (s *Store) ActiveSports(ctx context.Context) ([]models.Sport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, slug, name, is_active FROM sports WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("postgres: active sports: %w", err)
	}
	defer rows.Close()

	var out []models.Sport
	for rows.Next() {
		var sp models.Sport
		if err := rows.Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.IsActive); err != nil {
			return nil, fmt.Errorf("postgres: scan sport: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) LiveEvents(ctx context.Context, sportID int64) ([]store.EventRow, error) {
	return s.queryEventRows(ctx, `SELECT id, sport_id, competition_name, home_team_name, away_team_name,
		start_time, status, home_score, away_score FROM events WHERE sport_id = $1 AND status = 'live'`, sportID)
}

func (s *Store) UpcomingEvents(ctx context.Context, sportID int64, window time.Duration) ([]store.EventRow, error) {
	return s.queryEventRows(ctx, `SELECT id, sport_id, competition_name, home_team_name, away_team_name,
		start_time, status, home_score, away_score FROM events
		WHERE sport_id = $1 AND status = 'scheduled' AND start_time BETWEEN NOW() AND NOW() + $2 * INTERVAL '1 second'`,
		sportID, window.Seconds())
}

func (s *Store) queryEventRows(ctx context.Context, query string, args ...any) ([]store.EventRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query events: %w", err)
	}
	defer rows.Close()

	var out []store.EventRow
	for rows.Next() {
		var r store.EventRow
		var status string
		if err := rows.Scan(&r.ID, &r.SportID, &r.CompetitionName, &r.HomeTeam, &r.AwayTeam,
			&r.StartTime, &status, &r.HomeScore, &r.AwayScore); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		r.Status = models.EventStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateLiveScore(ctx context.Context, eventID int64, score models.LiveScore) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET home_score = $2, away_score = $3, period = $4, minute = $5
		 WHERE id = $1 AND status IN ('live', 'finished')`,
		eventID, score.HomeScore, score.AwayScore, score.Period, score.Minute,
	)
	if err != nil {
		return fmt.Errorf("postgres: update live score: %w", err)
	}
	return nil
}

func (s *Store) TransitionScheduledToLive(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET status = 'live' WHERE status = 'scheduled' AND start_time <= $1`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: transition to live: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Store) TransitionToFinished(ctx context.Context, eventID int64, score models.LiveScore) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET status = 'finished', home_score = $2, away_score = $3
		 WHERE id = $1 AND status = 'live'`,
		eventID, score.HomeScore, score.AwayScore,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: transition to finished: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpsertMarket(ctx context.Context, eventID int64, market models.Market) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	var marketID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO markets (event_id, type, line, is_suspended, is_main_market)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		eventID, market.Type, market.Line, market.IsSuspended, market.IsMainMarket,
	).Scan(&marketID)
	if err != nil {
		return fmt.Errorf("postgres: insert market: %w", err)
	}

	for _, o := range market.Outcomes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (market_id, name, odds, previous_odds, is_winner)
			 VALUES ($1, $2, $3, $4, $5)`,
			marketID, o.Name, o.Odds, o.PreviousOdds, o.IsWinner,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert outcome: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) StartRun(ctx context.Context, jobType, source string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scraper_runs (id, job_type, source, status, started_at) VALUES ($1, $2, $3, 'running', NOW())`,
		id, jobType, source,
	)
	if err != nil {
		return "", fmt.Errorf("postgres: start run: %w", err)
	}
	return id, nil
}

func (s *Store) CompleteRun(ctx context.Context, run models.ScraperRun) error {
	statsJSON, err := json.Marshal(run.SportStats)
	if err != nil {
		return fmt.Errorf("postgres: marshal sport stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE scraper_runs SET status = $2, completed_at = $3, duration_ms = $4,
			items_processed = $5, items_created = $6, items_updated = $7, items_failed = $8,
			sport_stats = $9, error_message = $10, lambda_request_id = $11
		 WHERE id = $1`,
		run.ID, string(run.Status), run.CompletedAt, run.DurationMS,
		run.ItemsProcessed, run.ItemsCreated, run.ItemsUpdated, run.ItemsFailed,
		statsJSON, run.ErrorMessage, run.LambdaRequestID,
	)
	if err != nil {
		return fmt.Errorf("postgres: complete run: %w", err)
	}
	return nil
}

func (s *Store) RecentRunStatuses(ctx context.Context, jobType string, limit int) ([]models.RunStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status FROM scraper_runs WHERE job_type = $1 ORDER BY started_at DESC LIMIT $2`,
		jobType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent run statuses: %w", err)
	}
	defer rows.Close()

	var out []models.RunStatus
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("postgres: scan run status: %w", err)
		}
		out = append(out, models.RunStatus(status))
	}
	return out, rows.Err()
}

func (s *Store) RecordAlert(ctx context.Context, alert models.ScraperAlert, dedupWindow time.Duration) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scraper_alerts
		 WHERE alert_type = $1 AND message = $2 AND created_at > NOW() - ($3 || ' seconds')::interval`,
		alert.AlertType, alert.Message, int(dedupWindow.Seconds()),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("postgres: check alert dedup: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	metadataJSON, err := json.Marshal(alert.Metadata)
	if err != nil {
		return false, fmt.Errorf("postgres: marshal alert metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scraper_alerts (id, run_id, alert_type, severity, message, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		uuid.NewString(), alert.RunID, alert.AlertType, alert.Severity, alert.Message, metadataJSON,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert alert: %w", err)
	}
	return true, nil
}
