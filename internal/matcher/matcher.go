// Package matcher implements the Event Matcher of spec §4.2: pairing
// scraped events to database events via team names and a start-time
// window, claiming each db event at most once per call.
package matcher

import (
	"time"

	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// Default thresholds per spec §4.2, chosen by the increasing cost of a
// false positive.
const (
	ThresholdLiveScores = 0.70
	ThresholdOdds       = 0.75
	ThresholdDedup      = 0.80
)

// Default time windows per spec §4.2: 12h for live data, 24h for fixtures.
const (
	WindowLive     = 12 * time.Hour
	WindowFixtures = 24 * time.Hour
)

// DBEvent is the minimal shape of a database candidate the matcher needs.
type DBEvent struct {
	ID        int64
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
}

// Options configures one MatchEvents call. The zero value matches spec
// §4.2's defaults: both teams required above threshold.
type Options struct {
	Threshold float64
	// AllowAverageMatch relaxes the "both teams must individually clear
	// threshold" rule (spec's RequireBothTeams) to "the average of the two
	// confidences must clear threshold". False (the zero value) is the
	// spec default: require both teams.
	AllowAverageMatch bool
	TimeWindow        time.Duration
}

// Match is one accepted pairing: a db event claimed by a scraped event,
// with per-side and overall confidence.
type Match struct {
	DBEvent       DBEvent
	Scraped       models.ScrapedEvent
	HomeConf      float64
	AwayConf      float64
	OverallConf   float64
}

// MatchEvents implements spec §4.2's algorithm. Each db event is matched at
// most once across the whole call.
func MatchEvents(scraped []models.ScrapedEvent, db []DBEvent, opts Options) []Match {
	if opts.TimeWindow == 0 {
		opts.TimeWindow = WindowLive
	}
	if opts.Threshold == 0 {
		opts.Threshold = ThresholdLiveScores
	}

	claimed := make(map[int64]bool, len(db))
	var matches []Match

	for _, se := range scraped {
		bestIdx := -1
		var bestHome, bestAway, bestOverall float64

		for i, de := range db {
			if claimed[de.ID] {
				continue
			}
			if se.StartTime != nil && !models.WithinDedupWindow(*se.StartTime, de.StartTime, opts.TimeWindow) {
				continue
			}

			homeConf := matchTeamNames(se.HomeTeam, de.HomeTeam)
			awayConf := matchTeamNames(se.AwayTeam, de.AwayTeam)
			overall := (homeConf + awayConf) / 2

			if opts.AllowAverageMatch {
				if overall < opts.Threshold {
					continue
				}
			} else if homeConf < opts.Threshold || awayConf < opts.Threshold {
				continue
			}

			if overall > bestOverall || bestIdx == -1 {
				bestIdx, bestHome, bestAway, bestOverall = i, homeConf, awayConf, overall
			}
		}

		if bestIdx == -1 {
			continue
		}

		de := db[bestIdx]
		claimed[de.ID] = true
		matches = append(matches, Match{
			DBEvent:     de,
			Scraped:     se,
			HomeConf:    bestHome,
			AwayConf:    bestAway,
			OverallConf: bestOverall,
		})
	}

	return matches
}

// matchTeamNames returns 1 if canonical forms coincide, otherwise the max
// of raw-name similarity and canonical-name similarity (spec §4.2).
func matchTeamNames(a, b string) float64 {
	return normalize.MatchTeamNames(a, b)
}
