package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// FotMob adapts fotmob.com's matches-by-date API.
type FotMob struct {
	client *httpclient.Client
}

func NewFotMob(client *httpclient.Client) *FotMob {
	return &FotMob{client: client}
}

func (f *FotMob) Name() string     { return "fotmob" }
func (f *FotMob) NeedsProxy() bool { return true }

type fotmobTeam struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type fotmobMatch struct {
	ID     int64 `json:"id"`
	Home   fotmobTeam `json:"home"`
	Away   fotmobTeam `json:"away"`
	Status struct {
		Finished bool   `json:"finished"`
		Started  bool   `json:"started"`
		UTCTime  string `json:"utcTime"`
	} `json:"status"`
}

type fotmobLeague struct {
	Name     string        `json:"name"`
	Matches  []fotmobMatch `json:"matches"`
}

type fotmobResponse struct {
	Leagues []fotmobLeague `json:"leagues"`
}

func (f *FotMob) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	date := time.Now().UTC().Format("20060102")
	body, err := f.client.GetJSON(ctx, "https://www.fotmob.com/api/matches?date="+date, nil)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("fotmob: fetch: %w", err)
	}

	var resp fotmobResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("fotmob: decode: %w", err)
	}

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, league := range resp.Leagues {
		for _, m := range league.Matches {
			if m.Home.Score == nil || m.Away.Score == nil {
				continue
			}
			for id, want := range remaining {
				if want.HomeTeam != m.Home.Name || want.AwayTeam != m.Away.Name {
					continue
				}
				result.Scores[id] = models.LiveScore{
					HomeScore:  *m.Home.Score,
					AwayScore:  *m.Away.Score,
					IsFinished: m.Status.Finished,
				}
				result.Matched = append(result.Matched, id)
				delete(remaining, id)
				break
			}
		}
	}
	for id := range remaining {
		result.Unmatched = append(result.Unmatched, id)
	}
	return result, nil
}

// FetchFixtures fetches upcoming fixtures for sport over the next `days`,
// used as a secondary fallback behind SofaScore in the fixtures
// orchestrator (spec §4.7).
func (f *FotMob) FetchFixtures(ctx context.Context, sport string, days int) ([]models.ScrapedFixture, error) {
	var out []models.ScrapedFixture
	now := time.Now().UTC()
	for d := 0; d < days; d++ {
		date := now.AddDate(0, 0, d).Format("20060102")
		body, err := f.client.GetJSON(ctx, "https://www.fotmob.com/api/matches?date="+date, nil)
		if err != nil {
			continue
		}
		var resp fotmobResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			continue
		}
		for _, league := range resp.Leagues {
			for _, m := range league.Matches {
				if m.Home.Name == "" || m.Away.Name == "" {
					continue
				}
				start := eventTimestamp(m.Status.UTCTime)
				out = append(out, models.ScrapedFixture{
					HomeTeam:        m.Home.Name,
					AwayTeam:        m.Away.Name,
					CompetitionName: league.Name,
					StartTime:       start,
					SourceID:        fmt.Sprintf("%d", m.ID),
					SourceName:      f.Name(),
				})
			}
		}
	}
	return out, nil
}
