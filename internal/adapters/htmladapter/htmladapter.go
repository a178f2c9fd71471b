// Package htmladapter holds the HTML-DOM family of source adapters (spec
// §4.6): Flashscore, OddsPortal, Oddschecker, Understat. Each requires a
// headless browser for JavaScript-rendered content, tries several CSS
// selectors in priority order because sites rename classes, and falls
// back to heuristic text extraction when the primary structure fails.
package htmladapter

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sportfeed/aggregator/internal/adapters"
)

// decimalOddsRe extracts decimal odds like "1.85" out of free text, the
// last-resort heuristic when structured markets can't be found.
var decimalOddsRe = regexp.MustCompile(`\b([0-9]{1,2}\.[0-9]{1,2})\b`)

// scoreLineRe extracts "X - Y" score patterns.
var scoreLineRe = regexp.MustCompile(`\b(\d{1,2})\s*-\s*(\d{1,2})\b`)

// firstNonEmpty tries each selector in order against page and returns the
// first one that yields any results (spec §4.6: sites rename classes).
func firstNonEmpty(ctx context.Context, page adapters.Page, selectors []string) ([]string, string, error) {
	for _, sel := range selectors {
		results, err := page.QuerySelectorAll(ctx, sel)
		if err != nil {
			continue
		}
		if len(results) > 0 {
			return results, sel, nil
		}
	}
	return nil, "", nil
}

// extractScoreLine finds the first "X - Y" pattern in free text.
func extractScoreLine(text string) (home, away int, ok bool) {
	m := scoreLineRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(m[1])
	a, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, a, true
}

// extractDecimalOdds finds every decimal-odds-shaped token in free text,
// in order of appearance.
func extractDecimalOdds(text string) []float64 {
	matches := decimalOddsRe.FindAllStringSubmatch(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// sportsEventJSONLD is the subset of schema.org's SportsEvent shape these
// adapters look for before falling back to selectors or heuristics (spec
// §4.6: "prefer JSON-LD SportsEvent blocks when present").
type sportsEventJSONLD struct {
	Type        string `json:"@type"`
	Name        string `json:"name"`
	StartDate   string `json:"startDate"`
	Competitor  []struct {
		Name string `json:"name"`
	} `json:"competitor"`
}

// findSportsEvent parses a page's JSON-LD script tag contents (already
// extracted by the caller via EvaluateText) looking for a SportsEvent
// block, tolerating an array-of-blocks wrapper.
func findSportsEvent(raw string) (*sportsEventJSONLD, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var single sportsEventJSONLD
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type == "SportsEvent" {
		return &single, true
	}

	var list []sportsEventJSONLD
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for i := range list {
			if list[i].Type == "SportsEvent" {
				return &list[i], true
			}
		}
	}
	return nil, false
}
