package jsonapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

func TestSofaScore_FetchLiveScores_MatchesByTeamNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events":[{"id":1,"status":{"type":"inprogress"},"homeTeam":{"name":"Arsenal"},"awayTeam":{"name":"Chelsea"},"homeScore":{"current":2},"awayScore":{"current":1}}]}`))
	}))
	defer srv.Close()

	client, err := httpclient.New(nil, "test-agent", 5*time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}

	s := NewSofaScore(client)
	s.baseURL = srv.URL

	events := []models.EventToMatch{{EventID: 42, HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}
	result, err := s.FetchLiveScores(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score, ok := result.Scores[42]
	if !ok {
		t.Fatal("expected event 42 to be matched by team name")
	}
	if score.HomeScore != 2 || score.AwayScore != 1 {
		t.Errorf("expected 2-1, got %d-%d", score.HomeScore, score.AwayScore)
	}
}

func TestSofaScore_FetchLiveScores_SkipsRowsMissingScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events":[{"id":1,"status":{"type":"notstarted"},"homeTeam":{"name":"Arsenal"},"awayTeam":{"name":"Chelsea"}}]}`))
	}))
	defer srv.Close()

	client, err := httpclient.New(nil, "test-agent", 5*time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewSofaScore(client)
	s.baseURL = srv.URL

	events := []models.EventToMatch{{EventID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}
	result, err := s.FetchLiveScores(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Matched) != 0 {
		t.Errorf("expected a not-started event with nil scores to be skipped, got %d matches", len(result.Matched))
	}
	if len(result.Unmatched) != 1 {
		t.Errorf("expected event to remain unmatched, got %d", len(result.Unmatched))
	}
}
