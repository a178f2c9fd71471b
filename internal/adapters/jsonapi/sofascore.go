package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// sofascoreBaseURL is a var rather than a const so tests can point it at
// an httptest server.
var sofascoreBaseURL = "https://api.sofascore.com/api/v1"

// SofaScore is the fixtures fallback source and a live-scores source
// (spec §4.6, §4.7).
type SofaScore struct {
	client  *httpclient.Client
	baseURL string
}

func NewSofaScore(client *httpclient.Client) *SofaScore {
	return &SofaScore{client: client, baseURL: sofascoreBaseURL}
}

func (s *SofaScore) Name() string    { return "sofascore" }
func (s *SofaScore) NeedsProxy() bool { return false }

type sofascoreEvent struct {
	ID             int64  `json:"id"`
	Status         struct{ Type string `json:"type"` } `json:"status"`
	HomeTeam       struct{ Name string `json:"name"` } `json:"homeTeam"`
	AwayTeam       struct{ Name string `json:"name"` } `json:"awayTeam"`
	HomeScore      struct{ Current *int `json:"current"` } `json:"homeScore"`
	AwayScore      struct{ Current *int `json:"current"` } `json:"awayScore"`
	Tournament     struct{ Name string `json:"name"` } `json:"tournament"`
	StartTimestamp int64 `json:"startTimestamp"`
}

type sofascoreEventsResponse struct {
	Events []sofascoreEvent `json:"events"`
}

// FetchLiveScores fetches today's live events for the sport and extracts
// scores for whichever of the requested ids it can match by team names,
// since SofaScore's own numeric ids differ from ours.
func (s *SofaScore) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	body, err := s.client.GetJSON(ctx, s.baseURL+"/sport/football/events/live", nil)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("sofascore: fetch: %w", err)
	}

	var resp sofascoreEventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("sofascore: decode: %w", err)
	}

	return matchSofaScoreEvents(resp.Events, events), nil
}

// matchSofaScoreEvents reconciles SofaScore's events (keyed by its own
// numeric ids) against the requested events by team name, since the two
// id spaces are unrelated.
func matchSofaScoreEvents(events []sofascoreEvent, want []models.EventToMatch) models.LiveScoresResult {
	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(want))
	for _, e := range want {
		remaining[e.EventID] = e
	}

	for _, se := range events {
		for id, w := range remaining {
			if w.HomeTeam != se.HomeTeam.Name || w.AwayTeam != se.AwayTeam.Name {
				continue
			}
			if se.HomeScore.Current == nil || se.AwayScore.Current == nil {
				continue
			}
			result.Scores[id] = models.LiveScore{
				HomeScore:  *se.HomeScore.Current,
				AwayScore:  *se.AwayScore.Current,
				Period:     se.Status.Type,
				IsFinished: isFinishedStatus(se.Status.Type),
			}
			result.Matched = append(result.Matched, id)
			delete(remaining, id)
			break
		}
	}
	for id := range remaining {
		result.Unmatched = append(result.Unmatched, id)
	}
	return result
}

// FetchFixtures fetches the next `days` worth of scheduled fixtures.
func (s *SofaScore) FetchFixtures(ctx context.Context, sport string, days int) ([]models.ScrapedFixture, error) {
	var out []models.ScrapedFixture
	now := time.Now().UTC()
	for d := 0; d < days; d++ {
		date := now.AddDate(0, 0, d).Format("2006-01-02")
		url := fmt.Sprintf("%s/sport/%s/scheduled-events/%s", s.baseURL, sport, date)
		body, err := s.client.GetJSON(ctx, url, nil)
		if err != nil {
			continue // spec §4.6: skip the row/day and continue rather than abort the whole fetch
		}
		var resp sofascoreEventsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			continue
		}
		for _, se := range resp.Events {
			if se.HomeTeam.Name == "" || se.AwayTeam.Name == "" {
				continue
			}
			out = append(out, models.ScrapedFixture{
				HomeTeam:        se.HomeTeam.Name,
				AwayTeam:        se.AwayTeam.Name,
				CompetitionName: se.Tournament.Name,
				StartTime:       time.Unix(se.StartTimestamp, 0).UTC(),
				SourceID:        fmt.Sprintf("%d", se.ID),
				SourceName:      s.Name(),
			})
		}
	}
	return out, nil
}
