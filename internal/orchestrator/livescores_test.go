package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// TestMain shrinks the retry backoff schedule so source-failure tests
// don't actually wait out the production 1s/2s schedule.
func TestMain(m *testing.M) {
	adapters.RetryBackoff = []time.Duration{time.Millisecond, time.Millisecond}
	os.Exit(m.Run())
}

// fakeLiveScoreSource is a scripted adapters.LiveScoresScraper used only in
// tests; it records how many times it was invoked.
type fakeLiveScoreSource struct {
	name       string
	needsProxy bool
	calls      int
	result     models.LiveScoresResult
	err        error
}

func (f *fakeLiveScoreSource) Name() string      { return f.name }
func (f *fakeLiveScoreSource) NeedsProxy() bool  { return f.needsProxy }
func (f *fakeLiveScoreSource) FetchLiveScores(_ context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	f.calls++
	if f.err != nil {
		return models.LiveScoresResult{}, f.err
	}
	return f.result, nil
}

func scoreFor(n int) models.LiveScore {
	return models.LiveScore{HomeScore: n, AwayScore: 0}
}

func TestLiveScores_EarlyExit_SecondSourceNotInvokedAboveCoverageThreshold(t *testing.T) {
	events := make([]models.EventToMatch, 10)
	for i := range events {
		events[i] = models.EventToMatch{EventID: int64(i + 1)}
	}

	scores := make(map[int64]models.LiveScore, 9)
	for i := 1; i <= 9; i++ {
		scores[int64(i)] = scoreFor(i)
	}

	primary := &fakeLiveScoreSource{name: "primary", result: models.LiveScoresResult{Scores: scores}}
	secondary := &fakeLiveScoreSource{name: "secondary", result: models.LiveScoresResult{Scores: map[int64]models.LiveScore{10: scoreFor(10)}}}

	o := NewLiveScores([]LiveScoreSource{
		{Scraper: primary, Priority: 0, Free: true},
		{Scraper: secondary, Priority: 1, Free: true},
	}, nil, nil, nil)

	result := o.Run(context.Background(), events)

	if primary.calls != 1 {
		t.Fatalf("expected primary called once, got %d", primary.calls)
	}
	if secondary.calls != 0 {
		t.Errorf("expected secondary NOT invoked once 90%% coverage was reached, got %d calls", secondary.calls)
	}
	if len(result.Matched) != 9 {
		t.Errorf("expected 9 matched events, got %d", len(result.Matched))
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != 10 {
		t.Errorf("expected event 10 left unmatched, got %v", result.Unmatched)
	}
}

func TestLiveScores_FallsBackWhenPrimaryBelowCoverage(t *testing.T) {
	events := make([]models.EventToMatch, 10)
	for i := range events {
		events[i] = models.EventToMatch{EventID: int64(i + 1)}
	}

	partial := map[int64]models.LiveScore{1: scoreFor(1), 2: scoreFor(2)} // 20% coverage
	rest := make(map[int64]models.LiveScore, 8)
	for i := 3; i <= 10; i++ {
		rest[int64(i)] = scoreFor(i)
	}

	primary := &fakeLiveScoreSource{name: "primary", result: models.LiveScoresResult{Scores: partial}}
	secondary := &fakeLiveScoreSource{name: "secondary", result: models.LiveScoresResult{Scores: rest}}

	o := NewLiveScores([]LiveScoreSource{
		{Scraper: primary, Priority: 0, Free: true},
		{Scraper: secondary, Priority: 1, Free: true},
	}, nil, nil, nil)

	result := o.Run(context.Background(), events)

	if secondary.calls != 1 {
		t.Fatalf("expected secondary invoked once primary fell short of coverage, got %d", secondary.calls)
	}
	if len(result.Matched) != 10 {
		t.Errorf("expected all 10 events matched across both sources, got %d", len(result.Matched))
	}
}

func TestLiveScores_SourceNeedingProxySkippedWithoutProxyManager(t *testing.T) {
	events := []models.EventToMatch{{EventID: 1}}
	proxied := &fakeLiveScoreSource{name: "proxied", needsProxy: true, result: models.LiveScoresResult{Scores: map[int64]models.LiveScore{1: scoreFor(1)}}}

	o := NewLiveScores([]LiveScoreSource{{Scraper: proxied, Priority: 0, Free: true}}, nil, nil, nil)
	result := o.Run(context.Background(), events)

	if proxied.calls != 0 {
		t.Errorf("expected proxy-required source skipped with no proxy manager, got %d calls", proxied.calls)
	}
	if len(result.Unmatched) != 1 {
		t.Errorf("expected the event to remain unmatched, got %v", result)
	}
}

func TestLiveScores_SourceErrorContinuesRotation(t *testing.T) {
	events := []models.EventToMatch{{EventID: 1}}
	failing := &fakeLiveScoreSource{name: "failing", err: errors.New("connection reset")}
	backup := &fakeLiveScoreSource{name: "backup", result: models.LiveScoresResult{Scores: map[int64]models.LiveScore{1: scoreFor(1)}}}

	o := NewLiveScores([]LiveScoreSource{
		{Scraper: failing, Priority: 0, Free: true},
		{Scraper: backup, Priority: 1, Free: true},
	}, nil, nil, nil)
	result := o.Run(context.Background(), events)

	if backup.calls != 1 {
		t.Fatalf("expected rotation to continue to backup after a failure, got %d calls", backup.calls)
	}
	if len(result.Matched) != 1 {
		t.Errorf("expected the event matched via backup, got %v", result.Matched)
	}
}
