// Package store defines the relational store contract every table in
// spec §6 is read through, and is implemented by internal/store/postgres
// in production and internal/store/storetest in tests.
package store

import (
	"context"
	"time"

	"github.com/sportfeed/aggregator/internal/dedup"
	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// Store is the full surface the job drivers need: team resolution, event
// dedup/lookup, market/outcome upserts, run tracking, and alerting.
// It embeds the narrower interfaces internal/normalize and internal/dedup
// already define so those packages stay decoupled from this one.
type Store interface {
	normalize.TeamStore
	dedup.EventStore

	// ActiveSports returns every sport a job driver should scope its work
	// to (spec §3's immutable sport reference, `is_active` filter).
	ActiveSports(ctx context.Context) ([]models.Sport, error)

	// LiveEvents returns every event currently in-progress, for the
	// sync-live-scores driver to pass to the matcher.
	LiveEvents(ctx context.Context, sportID int64) ([]EventRow, error)
	// UpcomingEvents returns scheduled events starting within the window,
	// for sync-odds.
	UpcomingEvents(ctx context.Context, sportID int64, window time.Duration) ([]EventRow, error)
	// UpdateLiveScore writes a live score onto an event inside a
	// transaction (spec §4.9 step 4).
	UpdateLiveScore(ctx context.Context, eventID int64, score models.LiveScore) error
	// TransitionScheduledToLive flips scheduled events whose start_time
	// has passed to live, returning how many rows changed (spec §4.9's
	// transition-events driver).
	TransitionScheduledToLive(ctx context.Context, now time.Time) (int, error)
	// TransitionToFinished marks an event finished with its final score,
	// returning whether this call actually performed the transition
	// (false if the event was already finished, spec §5 ordering
	// guarantee).
	TransitionToFinished(ctx context.Context, eventID int64, score models.LiveScore) (bool, error)

	// UpsertMarket writes a market and its outcomes for an event.
	UpsertMarket(ctx context.Context, eventID int64, market models.Market) error

	// StartRun inserts a running scraper_runs row and returns its id.
	StartRun(ctx context.Context, jobType, source string) (string, error)
	// CompleteRun finalizes a run's row with its outcome and stats.
	CompleteRun(ctx context.Context, run models.ScraperRun) error
	// RecentRunStatuses returns the most recent N run statuses for a job
	// type, most recent first (for the Run Tracker's consecutive-failure
	// alert, spec §4.8).
	RecentRunStatuses(ctx context.Context, jobType string, limit int) ([]models.RunStatus, error)

	// RecordAlert inserts a scraper_alerts row unless an equivalent alert
	// was already recorded within the dedup window (spec §4.4, §4.8).
	RecordAlert(ctx context.Context, alert models.ScraperAlert, dedupWindow time.Duration) (bool, error)
}

// EventRow is the store's view of one event row, wider than matcher.DBEvent
// or dedup.Candidate so it covers every driver's read needs.
type EventRow struct {
	ID              int64
	SportID         int64
	CompetitionName string
	HomeTeam        string
	AwayTeam        string
	StartTime       time.Time
	Status          models.EventStatus
	HomeScore       *int
	AwayScore       *int
}
