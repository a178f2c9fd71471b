package htmladapter

import (
	"context"
	"fmt"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

var oddscheckerSelectors = []string{
	`.diff-row`,
	`[data-event-id]`,
	`.eventTableRow`,
}

// Oddschecker is a UK-bookmaker-panel comparison source.
type Oddschecker struct {
	newPage adapters.PageFactory
}

func NewOddschecker(newPage adapters.PageFactory) *Oddschecker {
	return &Oddschecker{newPage: newPage}
}

func (o *Oddschecker) Name() string     { return "oddschecker" }
func (o *Oddschecker) NeedsProxy() bool { return true }

func (o *Oddschecker) FetchOdds(ctx context.Context, sport string) ([]models.NormalizedOdds, error) {
	page, err := o.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("oddschecker: open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, "https://www.oddschecker.com/"+sport); err != nil {
		return nil, fmt.Errorf("oddschecker: navigate: %w", err)
	}

	rows, _, err := firstNonEmpty(ctx, page, oddscheckerSelectors)
	if err != nil {
		return nil, fmt.Errorf("oddschecker: query rows: %w", err)
	}

	var out []models.NormalizedOdds
	for _, row := range rows {
		vals, home, away, ok := parseOddsPortalRow(row) // same heuristic shape applies
		if !ok {
			continue
		}
		normalized := averageTriples(vals)
		if normalized == nil {
			continue
		}
		count := len(vals) / 3
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
