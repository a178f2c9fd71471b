// Package dedup implements the Event Deduplicator of spec §4.3:
// findOrCreateEvent, which ensures at most one event row exists per
// real-world match across every source that has ever scraped it.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/sportfeed/aggregator/internal/normalize"
)

// DedupWindow is the ±2h start-time bracket in which two scraped matches
// may refer to the same event (spec GLOSSARY, §4.3).
const DedupWindow = 2 * time.Hour

// matchThreshold is the per-side similarity bar for step 2 (spec §4.3).
const matchThreshold = 0.80

// EventStore is the subset of the store the deduplicator needs.
type EventStore interface {
	FindByExternalID(ctx context.Context, sport, source, externalID string) (eventID int64, matchedSource string, ok bool, err error)
	CandidatesInWindow(ctx context.Context, sport string, start time.Time, window time.Duration) ([]Candidate, error)
	AttachExternalID(ctx context.Context, eventID int64, source, externalID string) error
	InsertScheduledEvent(ctx context.Context, ev NewEvent) (eventID int64, err error)
}

// Candidate is a minimal view of an existing event considered for dedup.
// Source is the event's originating source (the one it was first scraped
// from), independent of which source is doing the current matching — spec
// §4.3's matched_source reports this, not the scraping source.
type Candidate struct {
	EventID   int64
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Source    string
}

// NewEvent is what gets inserted when no existing event matches.
type NewEvent struct {
	SportID       int64
	HomeTeamID    int64
	AwayTeamID    int64
	HomeTeamName  string
	AwayTeamName  string
	Competition   string
	StartTime     time.Time
	Source        string
	ExternalID    string
}

// Result is the outcome of one FindOrCreateEvent call (spec §4.3).
type Result struct {
	EventID       int64
	IsNew         bool
	MatchedSource string
	Confidence    float64
}

// Deduplicator resolves a scraped fixture to a canonical event id.
type Deduplicator struct {
	store    EventStore
	resolver *normalize.Resolver
}

// NewDeduplicator builds a Deduplicator backed by store and resolver (the
// Team Normalizer used in step 3's team resolution).
func NewDeduplicator(store EventStore, resolver *normalize.Resolver) *Deduplicator {
	return &Deduplicator{store: store, resolver: resolver}
}

// ScrapedFixtureInput is the fixture being reconciled, including the
// resolving source's own external id for it.
type ScrapedFixtureInput struct {
	Sport           string
	Competition     string
	HomeTeam        string
	AwayTeam        string
	StartTime       time.Time
	Source          string
	ExternalID      string
	HomeTeamID      int64
	AwayTeamID      int64
	SportID         int64
}

// FindOrCreateEvent implements the ordered resolution of spec §4.3.
func (d *Deduplicator) FindOrCreateEvent(ctx context.Context, f ScrapedFixtureInput) (Result, error) {
	// 1. Fast path: source's external-id column already set for this fixture.
	if eventID, matchedSource, ok, err := d.store.FindByExternalID(ctx, f.Sport, f.Source, f.ExternalID); err != nil {
		return Result{}, fmt.Errorf("dedup: find by external id: %w", err)
	} else if ok {
		return Result{EventID: eventID, IsNew: false, MatchedSource: matchedSource, Confidence: 1}, nil
	}

	// 2. Search candidates within the sport and ±2h start-time window.
	candidates, err := d.store.CandidatesInWindow(ctx, f.Sport, f.StartTime, DedupWindow)
	if err != nil {
		return Result{}, fmt.Errorf("dedup: candidates: %w", err)
	}

	bestIdx := -1
	var bestConf float64
	for i, c := range candidates {
		homeConf := normalize.MatchTeamNames(f.HomeTeam, c.HomeTeam)
		awayConf := normalize.MatchTeamNames(f.AwayTeam, c.AwayTeam)
		if homeConf < matchThreshold || awayConf < matchThreshold {
			continue
		}
		avg := (homeConf + awayConf) / 2
		if bestIdx == -1 || avg > bestConf {
			bestIdx, bestConf = i, avg
		}
	}

	if bestIdx != -1 {
		match := candidates[bestIdx]
		if err := d.store.AttachExternalID(ctx, match.EventID, f.Source, f.ExternalID); err != nil {
			return Result{}, fmt.Errorf("dedup: attach external id: %w", err)
		}
		return Result{EventID: match.EventID, IsNew: false, MatchedSource: match.Source, Confidence: bestConf}, nil
	}

	// 3. Otherwise resolve teams and insert a new scheduled event.
	homeTeamID, awayTeamID := f.HomeTeamID, f.AwayTeamID
	if d.resolver != nil {
		if homeTeamID == 0 {
			homeTeamID, err = d.resolver.FindOrCreateTeam(ctx, f.HomeTeam, f.Source)
			if err != nil {
				return Result{}, fmt.Errorf("dedup: resolve home team: %w", err)
			}
		}
		if awayTeamID == 0 {
			awayTeamID, err = d.resolver.FindOrCreateTeam(ctx, f.AwayTeam, f.Source)
			if err != nil {
				return Result{}, fmt.Errorf("dedup: resolve away team: %w", err)
			}
		}
	}

	eventID, err := d.store.InsertScheduledEvent(ctx, NewEvent{
		SportID:      f.SportID,
		HomeTeamID:   homeTeamID,
		AwayTeamID:   awayTeamID,
		HomeTeamName: f.HomeTeam,
		AwayTeamName: f.AwayTeam,
		Competition:  f.Competition,
		StartTime:    f.StartTime,
		Source:       f.Source,
		ExternalID:   f.ExternalID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("dedup: insert event: %w", err)
	}

	return Result{EventID: eventID, IsNew: true}, nil
}
