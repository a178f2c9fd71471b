package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// ESPN fetches its public scoreboard JSON feed.
type ESPN struct {
	client *httpclient.Client
}

func NewESPN(client *httpclient.Client) *ESPN {
	return &ESPN{client: client}
}

func (e *ESPN) Name() string     { return "espn" }
func (e *ESPN) NeedsProxy() bool { return false }

type espnCompetitor struct {
	HomeAway string `json:"homeAway"`
	Team     struct{ DisplayName string `json:"displayName"` } `json:"team"`
	Score    string `json:"score"`
}

type espnEvent struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Type struct {
			State string `json:"state"` // "pre", "in", "post"
		} `json:"type"`
	} `json:"status"`
	Competitions []struct {
		Competitors []espnCompetitor `json:"competitors"`
	} `json:"competitions"`
}

type espnScoreboard struct {
	Events []espnEvent `json:"events"`
}

// FetchLiveScores maps ESPN's "state" (pre/in/post) into our common
// is_finished boolean and pulls home/away scores out of the competitors
// array (ESPN doesn't key them by side, only by a homeAway tag).
func (e *ESPN) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	body, err := e.client.GetJSON(ctx, "https://site.api.espn.com/apis/site/v2/sports/soccer/eng.1/scoreboard", nil)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("espn: fetch: %w", err)
	}

	var sb espnScoreboard
	if err := json.Unmarshal(body, &sb); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("espn: decode: %w", err)
	}

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, ee := range sb.Events {
		if len(ee.Competitions) == 0 {
			continue
		}
		home, away, ok := splitCompetitors(ee.Competitions[0].Competitors)
		if !ok {
			continue
		}
		for id, want := range remaining {
			if want.HomeTeam != home.Team.DisplayName || want.AwayTeam != away.Team.DisplayName {
				continue
			}
			homeScore, awayErr1 := parseScore(home.Score)
			awayScore, awayErr2 := parseScore(away.Score)
			if awayErr1 != nil || awayErr2 != nil {
				continue
			}
			result.Scores[id] = models.LiveScore{
				HomeScore:  homeScore,
				AwayScore:  awayScore,
				IsFinished: ee.Status.Type.State == "post",
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

func splitCompetitors(cs []espnCompetitor) (home, away espnCompetitor, ok bool) {
	var h, a espnCompetitor
	var hasHome, hasAway bool
	for _, c := range cs {
		switch c.HomeAway {
		case "home":
			h, hasHome = c, true
		case "away":
			a, hasAway = c, true
		}
	}
	return h, a, hasHome && hasAway
}

func parseScore(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// eventTimestamp parses an RFC 3339 timestamp field, falling back to the
// zero time on malformed input rather than failing the row (spec §4.6).
func eventTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
