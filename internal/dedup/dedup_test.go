package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/pkg/models"
)

type fakeEventStore struct {
	nextID int64
	events map[int64]*storedEvent
}

type storedEvent struct {
	homeTeam, awayTeam string
	startTime          time.Time
	externalIDs        map[string]string
	primarySource      string
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[int64]*storedEvent{}}
}

func (f *fakeEventStore) FindByExternalID(_ context.Context, _, source, externalID string) (int64, string, bool, error) {
	for id, ev := range f.events {
		if ev.externalIDs[source] == externalID {
			return id, ev.primarySource, true, nil
		}
	}
	return 0, "", false, nil
}

func (f *fakeEventStore) CandidatesInWindow(_ context.Context, _ string, start time.Time, window time.Duration) ([]Candidate, error) {
	var out []Candidate
	for id, ev := range f.events {
		if models.WithinDedupWindow(ev.startTime, start, window) {
			out = append(out, Candidate{
				EventID: id, HomeTeam: ev.homeTeam, AwayTeam: ev.awayTeam, StartTime: ev.startTime,
				Source: ev.primarySource,
			})
		}
	}
	return out, nil
}

func (f *fakeEventStore) AttachExternalID(_ context.Context, eventID int64, source, externalID string) error {
	f.events[eventID].externalIDs[source] = externalID
	return nil
}

func (f *fakeEventStore) InsertScheduledEvent(_ context.Context, ev NewEvent) (int64, error) {
	f.nextID++
	f.events[f.nextID] = &storedEvent{
		homeTeam:      ev.HomeTeamName,
		awayTeam:      ev.AwayTeamName,
		startTime:     ev.StartTime,
		externalIDs:   map[string]string{ev.Source: ev.ExternalID},
		primarySource: ev.Source,
	}
	return f.nextID, nil
}

type fakeTeamStore struct {
	nextID int64
}

func (f *fakeTeamStore) FindAlias(context.Context, string, string) (int64, bool, error) { return 0, false, nil }
func (f *fakeTeamStore) FindByNormalizedName(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}
func (f *fakeTeamStore) AllTeams(context.Context) ([]models.Team, error) { return nil, nil }
func (f *fakeTeamStore) CreateTeam(context.Context, string) (int64, error) {
	f.nextID++
	return f.nextID, nil
}
func (f *fakeTeamStore) CreateAlias(context.Context, int64, string, string) error { return nil }

func TestFindOrCreateEvent_CrossSourceMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore()
	resolver := normalize.NewResolver(&fakeTeamStore{}, nil)
	dd := NewDeduplicator(store, resolver)

	start := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)

	existing, err := dd.FindOrCreateEvent(ctx, ScrapedFixtureInput{
		Sport:       "football",
		HomeTeam:    "Manchester United",
		AwayTeam:    "Chelsea",
		StartTime:   start,
		Source:      "flashscore",
		ExternalID:  "ABC",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existing.IsNew {
		t.Fatalf("expected first call to create a new event")
	}

	result, err := dd.FindOrCreateEvent(ctx, ScrapedFixtureInput{
		Sport:      "football",
		HomeTeam:   "Man United",
		AwayTeam:   "Chelsea FC",
		StartTime:  start,
		Source:     "oddschecker",
		ExternalID: "XYZ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsNew {
		t.Fatalf("expected second call to match the existing event, got is_new=true")
	}
	if result.EventID != existing.EventID {
		t.Fatalf("expected same event id %d, got %d", existing.EventID, result.EventID)
	}
	if result.MatchedSource != "flashscore" {
		t.Errorf("expected matched_source to report the event's originating source flashscore, got %q", result.MatchedSource)
	}

	if got := store.events[existing.EventID].externalIDs["oddschecker"]; got != "XYZ" {
		t.Errorf("expected event to now carry external_oddschecker_id=XYZ, got %q", got)
	}
	if got := store.events[existing.EventID].externalIDs["flashscore"]; got != "ABC" {
		t.Errorf("expected event to retain external_flashscore_id=ABC, got %q", got)
	}
}

func TestFindOrCreateEvent_SameExternalIDIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore()
	dd := NewDeduplicator(store, nil)

	input := ScrapedFixtureInput{
		Sport: "football", HomeTeam: "Arsenal", AwayTeam: "Spurs",
		StartTime: time.Now().UTC(), Source: "flashscore", ExternalID: "111",
	}

	first, err := dd.FindOrCreateEvent(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := dd.FindOrCreateEvent(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.IsNew {
		t.Error("expected second identical call to report is_new=false")
	}
	if first.EventID != second.EventID {
		t.Errorf("expected stable event id, got %d then %d", first.EventID, second.EventID)
	}
}
