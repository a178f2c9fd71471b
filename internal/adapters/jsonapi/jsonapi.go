// Package jsonapi holds the JSON-API family of source adapters (spec
// §4.6): SofaScore, ESPN, 365Scores, FotMob, LiveScore. None of these
// need a browser; each fetches a documented URL and maps fields into the
// common ScrapedEvent-derived shapes.
package jsonapi

import (
	"time"
)

// cetLocation is used to translate CET/CEST display times some JSON APIs
// still emit alongside their own UTC timestamps (spec §4.6).
var cetLocation = mustLoadCET()

func mustLoadCET() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.UTC
	}
	return loc
}

// toUTC converts a CET/CEST wall-clock time to UTC using the IANA tzdata
// DST rule (last Sunday of March / October) rather than a hand-rolled one.
func toUTC(t time.Time) time.Time {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, cetLocation)
	return wall.UTC()
}

// isFinishedStatus maps a provider-specific status string onto the
// common IsFinished boolean, tolerating unknown values (spec §4.6: never
// throw on missing optional fields).
func isFinishedStatus(status string) bool {
	switch status {
	case "finished", "FT", "ended", "closed", "complete":
		return true
	default:
		return false
	}
}
