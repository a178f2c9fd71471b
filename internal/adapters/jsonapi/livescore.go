package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// LiveScore adapts livescore.com's JSON feed, which reports kickoff times
// in CET/CEST wall-clock form rather than UTC.
type LiveScore struct {
	client *httpclient.Client
}

func NewLiveScore(client *httpclient.Client) *LiveScore {
	return &LiveScore{client: client}
}

func (l *LiveScore) Name() string     { return "livescore" }
func (l *LiveScore) NeedsProxy() bool { return true }

type livescoreStage struct {
	Events []livescoreEvent `json:"Events"`
}

type livescoreEvent struct {
	ID       string `json:"Eid"`
	Tms      string `json:"Tms1"`
	Eps      string `json:"Eps"` // "FT", "LIVE", "NS"
	Home     string `json:"T1"`
	Away     string `json:"T2"`
	HomeScr  *int   `json:"Tr1"`
	AwayScr  *int   `json:"Tr2"`
	KickoffCET string `json:"Esd"` // "20241130150000" CET wall-clock
}

type livescoreResponse struct {
	Stages []livescoreStage `json:"Stages"`
}

func (l *LiveScore) FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error) {
	body, err := l.client.GetJSON(ctx, "https://prod-public-api.livescore.com/v1/api/app/date/soccer", nil)
	if err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("livescore: fetch: %w", err)
	}

	var resp livescoreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.LiveScoresResult{}, fmt.Errorf("livescore: decode: %w", err)
	}

	result := models.LiveScoresResult{Scores: map[int64]models.LiveScore{}}
	remaining := make(map[int64]models.EventToMatch, len(events))
	for _, ev := range events {
		remaining[ev.EventID] = ev
	}

	for _, stage := range resp.Stages {
		for _, e := range stage.Events {
			if e.HomeScr == nil || e.AwayScr == nil {
				continue
			}
			kickoff := parseCETTimestamp(e.KickoffCET)
			for id, want := range remaining {
				if want.HomeTeam != e.Home || want.AwayTeam != e.Away {
					continue
				}
				if !kickoff.IsZero() && absDuration(want.StartTime.Sub(kickoff)) > 3*time.Hour {
					continue
				}
				result.Scores[id] = models.LiveScore{
					HomeScore:  *e.HomeScr,
					AwayScore:  *e.AwayScr,
					Period:     e.Eps,
					IsFinished: isFinishedStatus(normalizeEps(e.Eps)),
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

func normalizeEps(eps string) string {
	if eps == "FT" {
		return "finished"
	}
	return eps
}

// parseCETTimestamp parses livescore's "YYYYMMDDHHMMSS" CET field into
// UTC, tolerating malformed values by returning the zero time (spec
// §4.6: never throw on an optional field).
func parseCETTimestamp(raw string) time.Time {
	if len(raw) != 14 {
		return time.Time{}
	}
	t, err := time.ParseInLocation("20060102150405", raw, cetLocation)
	if err != nil {
		return time.Time{}
	}
	return toUTC(t)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
