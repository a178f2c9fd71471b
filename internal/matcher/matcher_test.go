package matcher

import (
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestMatchEvents_FalsePositiveBlocked(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []DBEvent{{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: now}}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Tottenham", StartTime: ptrTime(now)},
		{HomeTeam: "Barcelona", AwayTeam: "Chelsea", StartTime: ptrTime(now)},
	}

	matches := MatchEvents(scraped, db, Options{Threshold: ThresholdLiveScores, TimeWindow: WindowLive})
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestMatchEvents_NoDoubleClaim(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []DBEvent{{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: now}}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: ptrTime(now)},
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: ptrTime(now)},
	}

	matches := MatchEvents(scraped, db, Options{Threshold: ThresholdLiveScores, TimeWindow: WindowLive})
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match (db event claimed once), got %d", len(matches))
	}
}

func TestMatchEvents_RespectsThresholdPolicy(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []DBEvent{{ID: 1, HomeTeam: "Manchester United", AwayTeam: "Chelsea", StartTime: now}}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Man United", AwayTeam: "Chelsea FC", StartTime: ptrTime(now)},
	}

	matches := MatchEvents(scraped, db, Options{Threshold: ThresholdLiveScores, TimeWindow: WindowLive})
	if len(matches) != 1 {
		t.Fatalf("expected the close spellings to match, got %d", len(matches))
	}
	if matches[0].HomeConf < ThresholdLiveScores || matches[0].AwayConf < ThresholdLiveScores {
		t.Errorf("returned match violates threshold policy: home=%v away=%v", matches[0].HomeConf, matches[0].AwayConf)
	}
}

func TestMatchEvents_OutsideTimeWindowExcluded(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	later := now.Add(20 * time.Hour)
	db := []DBEvent{{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: now}}
	scraped := []models.ScrapedEvent{{HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartTime: ptrTime(later)}}

	matches := MatchEvents(scraped, db, Options{Threshold: ThresholdLiveScores, TimeWindow: WindowLive})
	if len(matches) != 0 {
		t.Errorf("expected event outside the 12h window to be excluded, got %d matches", len(matches))
	}
}
