package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// The365Scores adapts 365scores.com's mobile API.
type The365Scores struct {
	client *httpclient.Client
}

func NewThe365Scores(client *httpclient.Client) *The365Scores {
	return &The365Scores{client: client}
}

func (s *The365Scores) Name() string     { return "365scores" }
func (s *The365Scores) NeedsProxy() bool { return true }

type scores365Competitor struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type scores365Game struct {
	ID           int64                 `json:"id"`
	StatusText   string                `json:"statusText"` // "Live", "FT", "Scheduled"
	GameTime     int                   `json:"gameTime"`   // minute
	Competitors  []scores365Competitor `json:"competitors"`
}

type scores365Response struct {
	Games []scores365Game `json:"games"`
}

func (s *The365Scores) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	body, err := s.client.GetJSON(ctx, "https://webws.365scores.com/web/games/current/?sports=1", nil)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("365scores: fetch: %w", err)
	}

	var resp scores365Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("365scores: decode: %w", err)
	}

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, g := range resp.Games {
		if len(g.Competitors) != 2 || g.Competitors[0].Score == nil || g.Competitors[1].Score == nil {
			continue // spec §4.6: skip rows with missing optional fields
		}
		home, away := g.Competitors[0], g.Competitors[1]
		for id, want := range remaining {
			if want.HomeTeam != home.Name || want.AwayTeam != away.Name {
				continue
			}
			minute := g.GameTime
			result.Scores[id] = models.LiveScore{
				HomeScore:  *home.Score,
				AwayScore:  *away.Score,
				Period:     g.StatusText,
				Minute:     &minute,
				IsFinished: isFinishedStatus(g.StatusText),
			}
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
