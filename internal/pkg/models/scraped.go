package models

import "time"

// ScrapedEvent is the common shape every adapter, JSON or HTML-DOM, maps its
// source-specific payload into. This is the abstraction that lets the
// matcher and orchestrators treat every source uniformly (spec §4.6).
type ScrapedEvent struct {
	HomeTeam        string
	AwayTeam        string
	HomeScore       *int
	AwayScore       *int
	Period          string
	Minute          *int
	IsFinished      bool
	StartTime       *time.Time
	CompetitionName string
	SourceID        string // the source's own id for this event
	SourceName      string
}

// EventToMatch is the input a LiveScoresScraper receives: a database event
// it should try to find a live score for.
type EventToMatch struct {
	EventID      int64
	HomeTeam     string
	AwayTeam     string
	CompetitionName string
	StartTime    time.Time
}

// LiveScore is what a LiveScoresScraper returns per matched event.
type LiveScore struct {
	HomeScore  int
	AwayScore  int
	Period     string
	Minute     *int
	IsFinished bool
}

// LiveScoresResult is the aggregate output of a single source attempt in
// the live-scores orchestrator.
type LiveScoresResult struct {
	Scores    map[int64]LiveScore
	Matched   []int64
	Unmatched []int64
}

// NormalizedOdds is every odds source's output normalized to a common shape
// (spec §4.7): a 1X2 triple plus optional bookmaker coverage count.
type NormalizedOdds struct {
	HomeTeam        string
	AwayTeam        string
	Competition     string
	HomeWin         *float64
	Draw            *float64
	AwayWin         *float64
	Source          string
	BookmakerCount  *int
	StartTime       time.Time
}

// ScrapedFixture is a future fixture as returned by a FixturesScraper.
type ScrapedFixture struct {
	HomeTeam        string
	AwayTeam        string
	CompetitionName string
	StartTime       time.Time
	SourceID        string
	SourceName      string
}
