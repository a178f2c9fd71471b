package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/matcher"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

type fakeOddsSource struct {
	name       string
	needsProxy bool
	calls      int
	rows       []models.NormalizedOdds
	err        error
}

func (f *fakeOddsSource) Name() string     { return f.name }
func (f *fakeOddsSource) NeedsProxy() bool { return f.needsProxy }
func (f *fakeOddsSource) FetchOdds(_ context.Context, sport string) ([]models.NormalizedOdds, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestOdds_MatchesRowsAboveBothTeamThreshold(t *testing.T) {
	start := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	dbEvents := []matcher.DBEvent{
		{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: start},
	}
	home, draw, away := 2.1, 3.4, 3.2
	src := &fakeOddsSource{name: "oddsportal", rows: []models.NormalizedOdds{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeWin: &home, Draw: &draw, AwayWin: &away, StartTime: start, Source: "oddsportal"},
	}}

	o := NewOdds([]OddsSource{{Scraper: src, Priority: 0}}, nil, nil, nil)
	matches := o.Run(context.Background(), "football", dbEvents)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].DBEventID != 1 {
		t.Errorf("expected match against db event 1, got %d", matches[0].DBEventID)
	}
}

func TestOdds_SkipsRowBelowThreshold(t *testing.T) {
	start := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	dbEvents := []matcher.DBEvent{
		{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: start},
	}
	home := 2.1
	src := &fakeOddsSource{name: "oddschecker", rows: []models.NormalizedOdds{
		{HomeTeam: "Totally Different FC", AwayTeam: "Nowhere United", HomeWin: &home, StartTime: start},
	}}

	o := NewOdds([]OddsSource{{Scraper: src, Priority: 0}}, nil, nil, nil)
	matches := o.Run(context.Background(), "football", dbEvents)

	if len(matches) != 0 {
		t.Errorf("expected no match for unrelated team names, got %d", len(matches))
	}
}

func TestOdds_StopsRotatingOnceRowCeilingReached(t *testing.T) {
	start := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	var dbEvents []matcher.DBEvent
	var rows []models.NormalizedOdds
	for i := 0; i < 60; i++ {
		dbEvents = append(dbEvents, matcher.DBEvent{ID: int64(i + 1), HomeTeam: "Team A", AwayTeam: "Team B", StartTime: start})
		rows = append(rows, models.NormalizedOdds{HomeTeam: "Team A", AwayTeam: "Team B", StartTime: start})
	}

	primary := &fakeOddsSource{name: "primary", rows: rows}
	secondary := &fakeOddsSource{name: "secondary", rows: rows}

	o := NewOdds([]OddsSource{
		{Scraper: primary, Priority: 0},
		{Scraper: secondary, Priority: 1},
	}, nil, nil, nil)
	_ = o.Run(context.Background(), "football", dbEvents)

	if secondary.calls != 0 {
		t.Errorf("expected rotation to stop once the 50-row ceiling was reached by the primary, got %d calls", secondary.calls)
	}
}
