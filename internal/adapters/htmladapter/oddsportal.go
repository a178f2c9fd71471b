package htmladapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

var oddsportalSelectors = []string{
	`[data-testid="game-row"]`,
	`.eventRow`,
	`table tbody tr`,
}

// OddsPortal aggregates odds across many bookmakers per event; this
// adapter reports the average plus how many bookmakers contributed
// (spec §4.6's bookmaker_count).
type OddsPortal struct {
	newPage adapters.PageFactory
}

func NewOddsPortal(newPage adapters.PageFactory) *OddsPortal {
	return &OddsPortal{newPage: newPage}
}

func (o *OddsPortal) Name() string     { return "oddsportal" }
func (o *OddsPortal) NeedsProxy() bool { return true }

func (o *OddsPortal) FetchOdds(ctx context.Context, sport string) ([]models.NormalizedOdds, error) {
	page, err := o.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("oddsportal: open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, "https://www.oddsportal.com/"+sport+"/"); err != nil {
		return nil, fmt.Errorf("oddsportal: navigate: %w", err)
	}

	rows, _, err := firstNonEmpty(ctx, page, oddsportalSelectors)
	if err != nil {
		return nil, fmt.Errorf("oddsportal: query rows: %w", err)
	}

	var out []models.NormalizedOdds
	for _, row := range rows {
		odds, home, away, ok := parseOddsPortalRow(row)
		if !ok {
			continue
		}
		count := len(odds) / 3
		normalized := averageTriples(odds)
		if normalized == nil {
			continue
		}
		out = append(out, models.NormalizedOdds{
			HomeTeam:       home,
			AwayTeam:       away,
			HomeWin:        &normalized[0],
			Draw:           &normalized[1],
			AwayWin:        &normalized[2],
			Source:         o.Name(),
			BookmakerCount: &count,
		})
	}
	return out, nil
}

// parseOddsPortalRow pulls team names (text preceding the first decimal
// odds token) and every decimal-odds token in the row, relying on the
// heuristic extraction fallback of spec §4.6.
func parseOddsPortalRow(row string) (odds []float64, home, away string, ok bool) {
	vals := extractDecimalOdds(row)
	if len(vals) < 3 {
		return nil, "", "", false
	}
	first := decimalOddsRe.FindStringIndex(row)
	if first == nil {
		return nil, "", "", false
	}
	teamsPart := strings.TrimSpace(row[:first[0]])
	home, away, split := splitTeams(teamsPart)
	if !split {
		return nil, "", "", false
	}
	return vals, home, away, true
}

func splitTeams(s string) (home, away string, ok bool) {
	for _, sep := range []string{" - ", " v ", " vs "} {
		if i := strings.Index(s, sep); i >= 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return "", "", false
}

// averageTriples averages decimal odds in groups of three (1/X/2 across
// however many bookmakers contributed a row).
func averageTriples(vals []float64) []float64 {
	n := len(vals) / 3
	if n == 0 {
		return nil
	}
	var sums [3]float64
	for i := 0; i < n; i++ {
		sums[0] += vals[i*3]
		sums[1] += vals[i*3+1]
		sums[2] += vals[i*3+2]
	}
	return []float64{sums[0] / float64(n), sums[1] / float64(n), sums[2] / float64(n)}
}
