package htmladapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// flashscoreSelectors are tried in order; Flashscore has renamed its
// match-row class several times over the years (spec §4.6).
var flashscoreSelectors = []string{
	`.event__match`,
	`[class*="event__match"]`,
	`.sportName .event__match`,
}

// Flashscore is the primary fixtures source (spec §4.7) and a live-scores
// source.
type Flashscore struct {
	newPage adapters.PageFactory
}

func NewFlashscore(newPage adapters.PageFactory) *Flashscore {
	return &Flashscore{newPage: newPage}
}

func (f *Flashscore) Name() string     { return "flashscore" }
func (f *Flashscore) NeedsProxy() bool { return false }

// FetchLiveScores renders Flashscore's football page and parses each match
// row as "Home Name Score - Score Away Name", taking rows from the first
// selector that returns any.
func (f *Flashscore) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	page, err := f.newPage(ctx)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("flashscore: open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, "https://www.flashscore.com/football/"); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("flashscore: navigate: %w", err)
	}

	rows, _, err := firstNonEmpty(ctx, page, flashscoreSelectors)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("flashscore: query rows: %w", err)
	}

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, row := range rows {
		home, away, homeScore, awayScore, ok := parseFlashscoreRow(row)
		if !ok {
			continue // spec §4.6: skip the row, never throw
		}
		for id, want := range remaining {
			if want.HomeTeam != home || want.AwayTeam != away {
				continue
			}
			result.Scores[id] = models.LiveScore{HomeScore: homeScore, AwayScore: awayScore}
			result.Matched = append(result.Matched, id)
			delete(remaining, id)
			break
		}
	}
	for id := range remaining {
		result.Unmatched = append(result.Unmatched, id)
	}
	return result, nil
}

// FetchFixtures renders the sport's fixtures page. When a JSON-LD
// SportsEvent block with two competitors is present it returns that single
// fixture, with the event's name as its competition; otherwise it returns
// team names parsed from selector rows, with no competition. Start times
// are not set on either path.
func (f *Flashscore) FetchFixtures(ctx context.Context, sport string, days int) ([]models.ScrapedFixture, error) {
	page, err := f.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("flashscore: open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, "https://www.flashscore.com/"+sport+"/"); err != nil {
		return nil, fmt.Errorf("flashscore: navigate: %w", err)
	}

	if raw, err := page.EvaluateText(ctx, jsonLDExtractScript); err == nil {
		if ev, ok := findSportsEvent(raw); ok && len(ev.Competitor) == 2 {
			return []models.ScrapedFixture{{
				HomeTeam:        ev.Competitor[0].Name,
				AwayTeam:        ev.Competitor[1].Name,
				CompetitionName: ev.Name,
				SourceName:      f.Name(),
			}}, nil
		}
	}

	rows, _, err := firstNonEmpty(ctx, page, flashscoreSelectors)
	if err != nil {
		return nil, fmt.Errorf("flashscore: query rows: %w", err)
	}

	var out []models.ScrapedFixture
	for _, row := range rows {
		home, away, _, _, ok := parseFlashscoreRow(row)
		if !ok {
			continue
		}
		out = append(out, models.ScrapedFixture{HomeTeam: home, AwayTeam: away, SourceName: f.Name()})
	}
	return out, nil
}

// jsonLDExtractScript is evaluated in-page to pull the first JSON-LD
// script tag's text content.
const jsonLDExtractScript = `(() => {
	const el = document.querySelector('script[type="application/ld+json"]');
	return el ? el.textContent : '';
})()`

// parseFlashscoreRow parses Flashscore's row text, which renders roughly
// as "Home Team<score> - <score>Away Team" once stripped of markup.
func parseFlashscoreRow(row string) (home, away string, homeScore, awayScore int, ok bool) {
	h, a, matched := extractScoreLine(row)
	if !matched {
		return "", "", 0, 0, false
	}
	parts := scoreLineRe.Split(row, 2)
	if len(parts) != 2 {
		return "", "", 0, 0, false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), h, a, true
}
