package models

import "time"

// EventStatus is one of the closed set of statuses an Event can carry.
// Transitions form a DAG: scheduled -> {live, cancelled, postponed},
// live -> finished, postponed -> scheduled. No other edges are permitted.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusLive      EventStatus = "live"
	StatusFinished  EventStatus = "finished"
	StatusCancelled EventStatus = "cancelled"
	StatusPostponed EventStatus = "postponed"
)

// allowedTransitions encodes the status DAG from spec §3.
var allowedTransitions = map[EventStatus]map[EventStatus]bool{
	StatusScheduled: {StatusLive: true, StatusCancelled: true, StatusPostponed: true},
	StatusLive:      {StatusFinished: true},
	StatusPostponed: {StatusScheduled: true},
}

// CanTransition reports whether moving from `from` to `to` is a legal edge.
// A status transitioning to itself is always legal (a no-op write).
func CanTransition(from, to EventStatus) bool {
	if from == to {
		return true
	}
	edges, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return edges[to]
}

// Event represents a single real-world match, the canonical record that
// scraped data from every source is reconciled into.
type Event struct {
	ID               int64
	SportID          int64
	CompetitionID    int64
	CompetitionName  string // denormalized, frozen at ingest
	HomeTeamID       int64
	AwayTeamID       int64
	HomeTeamName     string // denormalized, frozen at ingest
	AwayTeamName     string // denormalized, frozen at ingest
	StartTime        time.Time
	Status           EventStatus
	HomeScore        *int
	AwayScore        *int
	Period           string
	Minute           *int
	ExternalIDs      map[string]string // source name -> external_<source>_id
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExternalID returns the external id this event carries for source, if any.
func (e *Event) ExternalID(source string) (string, bool) {
	if e.ExternalIDs == nil {
		return "", false
	}
	id, ok := e.ExternalIDs[source]
	return id, ok
}

// SetExternalID attaches source's external id to the event, creating the
// map on first use. Idempotent: re-attaching the same id is a no-op.
func (e *Event) SetExternalID(source, id string) {
	if e.ExternalIDs == nil {
		e.ExternalIDs = make(map[string]string)
	}
	e.ExternalIDs[source] = id
}

// WithinDedupWindow reports whether two start times fall within the ±window
// bracket used to consider two scraped events candidates for the same match.
func WithinDedupWindow(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
