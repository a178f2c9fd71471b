// Package runtracker implements the Run Tracker of spec §4.8: every job
// invocation gets a scraper_runs row, accumulates per-sport counters as it
// works, and on completion classifies itself success/partial/failed and
// emits alerts on threshold crossings.
package runtracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/pkg/errs"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/store"
)

// errorRateAlertThreshold is spec §4.8's ">10% of items failed".
const errorRateAlertThreshold = 0.10

// consecutiveFailuresAlertThreshold is spec §4.8's "three or more
// consecutive failed runs for the same job type".
const consecutiveFailuresAlertThreshold = 3

// alertDedupWindow matches the rest of the system's 30-minute alert dedup
// (spec §4.4).
const alertDedupWindow = 30 * time.Minute

// Tracker builds Runs and holds the per-sport low-fixture-count floors a
// fixtures run is checked against.
type Tracker struct {
	store            store.Store
	dispatcher       *alerting.Dispatcher
	lowFixtureFloors map[string]int // sport slug -> expected minimum
	now              func() time.Time
}

func NewTracker(s store.Store, dispatcher *alerting.Dispatcher, lowFixtureFloors map[string]int) *Tracker {
	return &Tracker{store: s, dispatcher: dispatcher, lowFixtureFloors: lowFixtureFloors, now: time.Now}
}

// Run is one in-progress job invocation's tracked state.
type Run struct {
	tracker   *Tracker
	id        string
	jobType   models.JobType
	source    string
	startedAt time.Time

	mu    sync.Mutex
	stats map[string]*models.SportStats
	errs  errs.Collector
}

// Start inserts the running row and returns the handle callers accumulate
// counters on and eventually Complete or Fail.
func (t *Tracker) Start(ctx context.Context, jobType models.JobType, source string) (*Run, error) {
	id, err := t.store.StartRun(ctx, string(jobType), source)
	if err != nil {
		return nil, fmt.Errorf("runtracker: start: %w", err)
	}
	return &Run{
		tracker:   t,
		id:        id,
		jobType:   jobType,
		source:    source,
		startedAt: t.tracker0(),
		stats:     make(map[string]*models.SportStats),
	}, nil
}

func (t *Tracker) tracker0() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// ID returns the underlying ScraperRun's id, for callers that need to
// stamp it onto outgoing messages (e.g. the settlement queue envelope).
func (r *Run) ID() string { return r.id }

func (r *Run) statsFor(sport string) *models.SportStats {
	s, ok := r.stats[sport]
	if !ok {
		s = &models.SportStats{}
		r.stats[sport] = s
	}
	return s
}

func (r *Run) RecordProcessed(sport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsFor(sport).Processed++
}

func (r *Run) RecordCreated(sport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsFor(sport).Created++
}

func (r *Run) RecordUpdated(sport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsFor(sport).Updated++
}

func (r *Run) RecordFailed(sport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsFor(sport).Failed++
}

// RecordItemError records a single item's store-write failure: it counts as
// a failed item (RecordFailed) and its text is folded into the run's
// error_message via the errs.Collector, without aborting the run.
func (r *Run) RecordItemError(sport string, err error) {
	r.RecordFailed(sport)
	r.errs.Add(sport, err)
}

func (r *Run) totals() (processed, created, updated, failed int) {
	for _, s := range r.stats {
		processed += s.Processed
		created += s.Created
		updated += s.Updated
		failed += s.Failed
	}
	return
}

// Complete finalizes a run that ran to the end (success or partial
// depending on whether any items failed), checks alert thresholds, and
// dispatches any alerts it decides to emit.
func (r *Run) Complete(ctx context.Context) error {
	processed, created, updated, failed := r.totals()
	status := models.RunSuccess
	if failed > 0 {
		status = models.RunPartial
	}
	return r.finish(ctx, status, processed, created, updated, failed, r.errs.String())
}

// Fail finalizes a run that aborted on an unhandled error.
func (r *Run) Fail(ctx context.Context, cause error) error {
	processed, created, updated, failed := r.totals()
	if cause != nil {
		r.errs.Add("fatal", cause)
	}
	return r.finish(ctx, models.RunFailed, processed, created, updated, failed, r.errs.String())
}

func (r *Run) finish(ctx context.Context, status models.RunStatus, processed, created, updated, failed int, errMsg string) error {
	now := r.tracker.tracker0()
	sportStats := make(map[string]models.SportStats, len(r.stats))
	for sport, s := range r.stats {
		sportStats[sport] = *s
	}

	run := models.ScraperRun{
		ID:              r.id,
		JobType:         r.jobType,
		Source:          r.source,
		Status:          status,
		StartedAt:       r.startedAt,
		CompletedAt:     &now,
		DurationMS:      now.Sub(r.startedAt).Milliseconds(),
		ItemsProcessed:  processed,
		ItemsCreated:    created,
		ItemsUpdated:    updated,
		ItemsFailed:     failed,
		SportStats:      sportStats,
		ErrorMessage:    errMsg,
		LambdaRequestID: "",
	}

	if err := r.tracker.store.CompleteRun(ctx, run); err != nil {
		return fmt.Errorf("runtracker: complete: %w", err)
	}

	r.checkThresholds(ctx, run)
	return nil
}

func (r *Run) checkThresholds(ctx context.Context, run models.ScraperRun) {
	if run.ItemsProcessed > 0 {
		rate := float64(run.ItemsFailed) / float64(run.ItemsProcessed)
		if rate > errorRateAlertThreshold {
			r.emit(ctx, models.ScraperAlert{
				AlertType: models.AlertHighErrorRate,
				Severity:  models.SeverityWarning,
				Message:   fmt.Sprintf("%s run %s: error rate %.1f%% across %d items", run.JobType, run.ID, rate*100, run.ItemsProcessed),
				Metadata:  map[string]any{"source": run.Source, "job_type": string(run.JobType)},
				CreatedAt: r.tracker.tracker0(),
			})
		}
	}

	for sport, stats := range run.SportStats {
		floor, ok := r.tracker.lowFixtureFloors[sport]
		if !ok {
			continue
		}
		if stats.Processed < floor {
			r.emit(ctx, models.ScraperAlert{
				AlertType: models.AlertLowFixtureCount,
				Severity:  models.SeverityWarning,
				Message:   fmt.Sprintf("%s run %s: only %d %s items, expected at least %d", run.JobType, run.ID, stats.Processed, sport, floor),
				Metadata:  map[string]any{"source": run.Source, "job_type": string(run.JobType), "sport": sport},
				CreatedAt: r.tracker.tracker0(),
			})
		}
	}

	if run.Status == models.RunFailed {
		recent, err := r.tracker.store.RecentRunStatuses(ctx, string(run.JobType), consecutiveFailuresAlertThreshold)
		if err != nil {
			slog.Default().Warn("runtracker: failed to check consecutive-failure streak", "job_type", run.JobType, "error", err)
			return
		}
		if len(recent) >= consecutiveFailuresAlertThreshold && allFailed(recent) {
			r.emit(ctx, models.ScraperAlert{
				AlertType: models.AlertConsecutiveFailed,
				Severity:  models.SeverityCritical,
				Message:   fmt.Sprintf("%s has failed %d consecutive runs", run.JobType, len(recent)),
				Metadata:  map[string]any{"job_type": string(run.JobType)},
				CreatedAt: r.tracker.tracker0(),
			})
		}
	}
}

func allFailed(statuses []models.RunStatus) bool {
	for _, s := range statuses {
		if s != models.RunFailed {
			return false
		}
	}
	return true
}

func (r *Run) emit(ctx context.Context, alert models.ScraperAlert) {
	alert.RunID = r.id
	emitted, err := r.tracker.store.RecordAlert(ctx, alert, alertDedupWindow)
	if err != nil {
		slog.Default().Warn("runtracker: failed to record alert", "alert_type", alert.AlertType, "error", err)
		return
	}
	if !emitted {
		return // deduped within the window
	}
	if r.tracker.dispatcher != nil {
		r.tracker.dispatcher.Dispatch(ctx, alert)
	}
}
