package htmladapter

import (
	"context"
	"testing"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/adapters/fakedom"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

func newFakeFactory(page *fakedom.Page) adapters.PageFactory {
	return func(ctx context.Context) (adapters.Page, error) { return page, nil }
}

func TestFlashscore_FetchLiveScores_MatchesBySelectorRow(t *testing.T) {
	page := fakedom.New()
	page.Selectors[flashscoreSelectors[0]] = []string{
		"Arsenal 2 - 1 Chelsea",
		"Liverpool 0 - 0 Everton",
	}

	fs := NewFlashscore(newFakeFactory(page))
	events := []models.EventToMatch{{EventID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}

	result, err := fs.FetchLiveScores(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score, ok := result.Scores[1]
	if !ok {
		t.Fatal("expected event 1 to be matched")
	}
	if score.HomeScore != 2 || score.AwayScore != 1 {
		t.Errorf("expected 2-1, got %d-%d", score.HomeScore, score.AwayScore)
	}
}

func TestFlashscore_FetchLiveScores_FallsBackAcrossSelectors(t *testing.T) {
	page := fakedom.New()
	// Primary selector renamed (empty); second-in-order selector has the row.
	page.Selectors[flashscoreSelectors[1]] = []string{"Arsenal 2 - 1 Chelsea"}

	fs := NewFlashscore(newFakeFactory(page))
	events := []models.EventToMatch{{EventID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}

	result, err := fs.FetchLiveScores(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.Scores[1]; !ok {
		t.Fatal("expected fallback selector to still find the match")
	}
}

func TestFlashscore_FetchFixtures_PrefersJSONLD(t *testing.T) {
	page := fakedom.New()
	page.Evals[jsonLDExtractScript] = `{"@type":"SportsEvent","name":"Premier League","competitor":[{"name":"Arsenal"},{"name":"Chelsea"}]}`

	fs := NewFlashscore(newFakeFactory(page))
	fixtures, err := fs.FetchFixtures(context.Background(), "football", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].HomeTeam != "Arsenal" || fixtures[0].AwayTeam != "Chelsea" {
		t.Fatalf("expected JSON-LD fixture to be preferred, got %+v", fixtures)
	}
}
