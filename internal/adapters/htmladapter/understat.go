package htmladapter

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// understatDatasetsRe extracts Understat's inline
// `JSON.parse('...')`-encoded datasets, which is where the site's xG
// match data actually lives rather than in the DOM.
var understatDatasetsRe = regexp.MustCompile(`JSON\.parse\('((?:[^'\\]|\\.)*)'\)`)

// Understat is a live-scores source read from the EPL league page's
// embedded match data. Only matches the page marks as results are
// reported, always as finished; no expected-goals data is read.
type Understat struct {
	newPage adapters.PageFactory
}

func NewUnderstat(newPage adapters.PageFactory) *Understat {
	return &Understat{newPage: newPage}
}

func (u *Understat) Name() string     { return "understat" }
func (u *Understat) NeedsProxy() bool { return true }

type understatMatch struct {
	ID       string `json:"id"`
	HomeTeam string `json:"h"`
	AwayTeam string `json:"a"`
	Goals    struct {
		Home string `json:"h"`
		Away string `json:"a"`
	} `json:"goals"`
	IsResult bool `json:"isResult"`
}

func (u *Understat) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	page, err := u.newPage(ctx)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("understat: open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, "https://understat.com/league/EPL"); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("understat: navigate: %w", err)
	}

	raw, err := page.EvaluateText(ctx, `document.body.innerHTML`)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("understat: read page: %w", err)
	}

	matches := parseUnderstatMatches(raw)

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, m := range matches {
		if !m.IsResult {
			continue
		}
		homeScore, err1 := strconv.Atoi(m.Goals.Home)
		awayScore, err2 := strconv.Atoi(m.Goals.Away)
		if err1 != nil || err2 != nil {
			continue
		}
		for id, want := range remaining {
			if want.HomeTeam != m.HomeTeam || want.AwayTeam != m.AwayTeam {
				continue
			}
			result.Scores[id] = models.LiveScore{HomeScore: homeScore, AwayScore: awayScore, IsFinished: true}
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

// parseUnderstatMatches finds the first embedded JSON.parse('...') blob
// that decodes into a match array, tolerating the absence of any match
// (spec §4.6: never throw, skip and continue).
func parseUnderstatMatches(body string) []understatMatch {
	for _, m := range understatDatasetsRe.FindAllStringSubmatch(body, -1) {
		decoded := html.UnescapeString(m[1])
		unescaped, err := strconv.Unquote(`"` + decoded + `"`)
		if err != nil {
			unescaped = decoded
		}
		var matches []understatMatch
		if err := json.Unmarshal([]byte(unescaped), &matches); err == nil {
			return matches
		}
	}
	return nil
}
