package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

type fakeFixturesSource struct {
	name       string
	needsProxy bool
	calls      int
	fixtures   []models.ScrapedFixture
	err        error
}

func (f *fakeFixturesSource) Name() string     { return f.name }
func (f *fakeFixturesSource) NeedsProxy() bool { return f.needsProxy }
func (f *fakeFixturesSource) FetchFixtures(_ context.Context, sport string, days int) ([]models.ScrapedFixture, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fixtures, nil
}

func fixturesFor(n int, sport string) []models.ScrapedFixture {
	out := make([]models.ScrapedFixture, n)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.ScrapedFixture{
			HomeTeam: "Home " + sport, AwayTeam: "Away " + sport,
			StartTime: start.Add(time.Duration(i) * time.Hour),
			SourceID:  "id", SourceName: "fake",
		}
	}
	return out
}

func TestFixtures_DoesNotFallBackWhenPrimaryMeetsFloor(t *testing.T) {
	primary := &fakeFixturesSource{name: "flashscore", fixtures: fixturesFor(25, "football")}
	fallback := &fakeFixturesSource{name: "sofascore", fixtures: fixturesFor(25, "football")}

	o := NewFixtures([]FixturesSource{
		{Scraper: primary, Priority: 0},
		{Scraper: fallback, Priority: 1},
	}, nil, nil, nil, nil)
	result := o.Run(context.Background(), "football", 3)

	if fallback.calls != 0 {
		t.Errorf("expected fallback NOT invoked when primary met the floor, got %d calls", fallback.calls)
	}
	if len(result) != 25 {
		t.Errorf("expected 25 fixtures, got %d", len(result))
	}
}

func TestFixtures_FallsBackWhenPrimaryBelowFloor(t *testing.T) {
	primary := &fakeFixturesSource{name: "flashscore", fixtures: fixturesFor(5, "football")}
	fallback := &fakeFixturesSource{name: "sofascore", fixtures: fixturesFor(20, "football")}

	o := NewFixtures([]FixturesSource{
		{Scraper: primary, Priority: 0},
		{Scraper: fallback, Priority: 1},
	}, nil, nil, nil, nil)
	result := o.Run(context.Background(), "football", 3)

	if fallback.calls != 1 {
		t.Fatalf("expected fallback invoked when primary was below the football floor of 20, got %d calls", fallback.calls)
	}
	// fixturesFor builds identical team names/start times across sources, so
	// the dedup key collapses the merge back down to the fallback's own 20.
	if len(result) != 20 {
		t.Errorf("expected merge deduped down to 20 fixtures, got %d", len(result))
	}
}

func TestFixtures_MergesDistinctFixturesAcrossSources(t *testing.T) {
	primary := &fakeFixturesSource{name: "flashscore", fixtures: []models.ScrapedFixture{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)},
	}}
	fallback := &fakeFixturesSource{name: "sofascore", fixtures: []models.ScrapedFixture{
		{HomeTeam: "Liverpool", AwayTeam: "Everton", StartTime: time.Date(2026, 8, 2, 20, 0, 0, 0, time.UTC)},
	}}

	o := NewFixtures([]FixturesSource{
		{Scraper: primary, Priority: 0},
		{Scraper: fallback, Priority: 1},
	}, map[string]int{"football": 5}, nil, nil, nil)
	result := o.Run(context.Background(), "football", 3)

	if len(result) != 2 {
		t.Fatalf("expected both distinct fixtures merged, got %d", len(result))
	}
}
