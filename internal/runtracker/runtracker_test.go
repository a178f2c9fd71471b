package runtracker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/store/storetest"
)

// recordingChannel is an alerting.Channel test double that captures every
// alert it is sent.
type recordingChannel struct {
	mu     sync.Mutex
	alerts []models.ScraperAlert
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, alert models.ScraperAlert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

func (c *recordingChannel) received(alertType models.AlertType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.alerts {
		if a.AlertType == alertType {
			return true
		}
	}
	return false
}

func TestRun_CompleteWithNoFailures_RecordsSuccess(t *testing.T) {
	s := storetest.New()
	tr := NewTracker(s, nil, nil)
	ctx := context.Background()

	run, err := tr.Start(ctx, models.JobSyncFixtures, "flashscore")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run.RecordProcessed("football")
	run.RecordCreated("football")

	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	statuses, err := s.RecentRunStatuses(ctx, string(models.JobSyncFixtures), 1)
	if err != nil {
		t.Fatalf("recent statuses: %v", err)
	}
	if len(statuses) != 1 || statuses[0] != models.RunSuccess {
		t.Errorf("expected a success status, got %v", statuses)
	}
}

func TestRun_CompleteWithSomeFailures_RecordsPartial(t *testing.T) {
	s := storetest.New()
	tr := NewTracker(s, nil, nil)
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncLiveScores, "sofascore")
	run.RecordProcessed("football")
	run.RecordFailed("football")

	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	statuses, _ := s.RecentRunStatuses(ctx, string(models.JobSyncLiveScores), 1)
	if len(statuses) != 1 || statuses[0] != models.RunPartial {
		t.Errorf("expected a partial status, got %v", statuses)
	}
}

func TestRun_Fail_RecordsFailedStatus(t *testing.T) {
	s := storetest.New()
	tr := NewTracker(s, nil, nil)
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncOdds, "oddsportal")
	if err := run.Fail(ctx, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}

	statuses, _ := s.RecentRunStatuses(ctx, string(models.JobSyncOdds), 1)
	if len(statuses) != 1 || statuses[0] != models.RunFailed {
		t.Errorf("expected a failed status, got %v", statuses)
	}
}

func TestRun_HighErrorRate_EmitsAlert(t *testing.T) {
	s := storetest.New()
	ch := &recordingChannel{}
	tr := NewTracker(s, alerting.NewDispatcher(ch), nil)
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncLiveScores, "espn")
	for i := 0; i < 10; i++ {
		run.RecordProcessed("football")
	}
	for i := 0; i < 2; i++ {
		run.RecordFailed("football")
	}
	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if !ch.received(models.AlertHighErrorRate) {
		t.Error("expected a high-error-rate alert for a 20% failure rate")
	}
}

func TestRun_ErrorRateBelowThreshold_DoesNotEmitAlert(t *testing.T) {
	s := storetest.New()
	ch := &recordingChannel{}
	tr := NewTracker(s, alerting.NewDispatcher(ch), nil)
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncLiveScores, "espn")
	for i := 0; i < 20; i++ {
		run.RecordProcessed("football")
	}
	run.RecordFailed("football") // 5%, under the 10% threshold
	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if ch.received(models.AlertHighErrorRate) {
		t.Error("did not expect an alert below the error-rate threshold")
	}
}

func TestRun_LowFixtureCount_EmitsAlert(t *testing.T) {
	s := storetest.New()
	ch := &recordingChannel{}
	tr := NewTracker(s, alerting.NewDispatcher(ch), map[string]int{"tennis": 3})
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncFixtures, "flashscore")
	run.RecordProcessed("tennis")

	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if !ch.received(models.AlertLowFixtureCount) {
		t.Error("expected a low-fixture-count alert when below the configured floor")
	}
}

func TestRun_RecordItemError_SurfacesInErrorMessageWithoutFailingRun(t *testing.T) {
	s := storetest.New()
	tr := NewTracker(s, nil, nil)
	ctx := context.Background()

	run, _ := tr.Start(ctx, models.JobSyncOdds, "oddschecker")
	run.RecordProcessed("football")
	run.RecordItemError("football", errors.New("event 42: upsert market failed"))

	if err := run.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	statuses, _ := s.RecentRunStatuses(ctx, string(models.JobSyncOdds), 1)
	if len(statuses) != 1 || statuses[0] != models.RunPartial {
		t.Errorf("expected a partial status from one item error, got %v", statuses)
	}
}

func TestRun_ThreeConsecutiveFailedRuns_EmitsAlert(t *testing.T) {
	s := storetest.New()
	ch := &recordingChannel{}
	tr := NewTracker(s, alerting.NewDispatcher(ch), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, _ := tr.Start(ctx, models.JobSettlePredictions, "queue")
		_ = run.Fail(ctx, errors.New("unreachable"))
	}

	statuses, err := s.RecentRunStatuses(ctx, string(models.JobSettlePredictions), 3)
	if err != nil {
		t.Fatalf("recent statuses: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 tracked runs, got %d", len(statuses))
	}
	for _, st := range statuses {
		if st != models.RunFailed {
			t.Errorf("expected every run failed, got %v", statuses)
		}
	}
	if !ch.received(models.AlertConsecutiveFailed) {
		t.Error("expected a consecutive-failed-runs alert after the third failure")
	}
}
