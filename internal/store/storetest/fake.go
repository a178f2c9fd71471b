// Package storetest provides an in-memory store.Store fake for tests that
// need a realistic store without a database, grounded in the teacher's
// practice of hand-rolled in-memory fakes for its storage interfaces
// (mirrored here the way internal/queue.InProcess fakes the settlement
// queue).
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sportfeed/aggregator/internal/dedup"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/store"
)

// Fake is an in-memory store.Store. Zero value is not usable; use New.
type Fake struct {
	mu sync.Mutex

	teams      map[int64]models.Team
	aliases    map[string]int64 // alias|source -> teamID
	nextTeamID int64

	events      map[int64]*eventRecord
	nextEventID int64

	markets      map[int64]models.Market
	nextMarketID int64

	runs  map[string]models.ScraperRun
	order []string // run ids, insertion order, per job type tracked via field

	alerts map[string]time.Time // ScraperAlert.DedupKey() (type|source) -> last emitted

	sports []models.Sport
}

type eventRecord struct {
	sportID         int64
	competitionName string
	homeTeamID      int64
	awayTeamID      int64
	homeTeamName    string
	awayTeamName    string
	startTime       time.Time
	status          models.EventStatus
	homeScore       *int
	awayScore       *int
	period          string
	minute          *int
	externalIDs     map[string]string
	primarySource   string
}

var _ store.Store = (*Fake)(nil)

// New builds an empty Fake.
func New() *Fake {
	return &Fake{
		teams:   make(map[int64]models.Team),
		aliases: make(map[string]int64),
		events:  make(map[int64]*eventRecord),
		markets: make(map[int64]models.Market),
		runs:    make(map[string]models.ScraperRun),
		alerts:  make(map[string]time.Time),
	}
}

// SeedSports installs the set of active sports ActiveSports returns, for
// tests that exercise job-driver-level code against the fake.
func (f *Fake) SeedSports(sports ...models.Sport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sports = append(f.sports, sports...)
}

func (f *Fake) ActiveSports(_ context.Context) ([]models.Sport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Sport, 0, len(f.sports))
	for _, sp := range f.sports {
		if sp.IsActive {
			out = append(out, sp)
		}
	}
	return out, nil
}

// --- normalize.TeamStore ---

func (f *Fake) FindAlias(_ context.Context, alias, source string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.aliases[alias+"|"+source]
	return id, ok, nil
}

func (f *Fake) FindByNormalizedName(_ context.Context, name string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.teams {
		if strings.EqualFold(t.Name, name) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (f *Fake) AllTeams(_ context.Context) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Team, 0, len(f.teams))
	for _, t := range f.teams {
		out = append(out, t)
	}
	return out, nil
}

func (f *Fake) CreateTeam(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTeamID++
	id := f.nextTeamID
	f.teams[id] = models.Team{ID: id, Name: name, CreatedAt: time.Now()}
	return id, nil
}

func (f *Fake) CreateAlias(_ context.Context, teamID int64, alias, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases[alias+"|"+source] = teamID
	return nil
}

// --- dedup.EventStore ---

func (f *Fake) FindByExternalID(_ context.Context, _, source, externalID string) (int64, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ev := range f.events {
		if ev.externalIDs[source] == externalID {
			return id, ev.primarySource, true, nil
		}
	}
	return 0, "", false, nil
}

func (f *Fake) CandidatesInWindow(_ context.Context, _ string, start time.Time, window time.Duration) ([]dedup.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dedup.Candidate
	for id, ev := range f.events {
		if models.WithinDedupWindow(ev.startTime, start, window) {
			out = append(out, dedup.Candidate{
				EventID: id, HomeTeam: ev.homeTeamName, AwayTeam: ev.awayTeamName, StartTime: ev.startTime,
				Source: ev.primarySource,
			})
		}
	}
	return out, nil
}

func (f *Fake) AttachExternalID(_ context.Context, eventID int64, source, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("storetest: event %d not found", eventID)
	}
	if ev.externalIDs == nil {
		ev.externalIDs = make(map[string]string)
	}
	ev.externalIDs[source] = externalID
	return nil
}

func (f *Fake) InsertScheduledEvent(_ context.Context, ev dedup.NewEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextEventID++
	id := f.nextEventID
	f.events[id] = &eventRecord{
		sportID:         ev.SportID,
		competitionName: ev.Competition,
		homeTeamID:      ev.HomeTeamID,
		awayTeamID:      ev.AwayTeamID,
		homeTeamName:    ev.HomeTeamName,
		awayTeamName:    ev.AwayTeamName,
		startTime:       ev.StartTime,
		status:          models.StatusScheduled,
		externalIDs:     map[string]string{ev.Source: ev.ExternalID},
		primarySource:   ev.Source,
	}
	return id, nil
}

// --- store.Store extras ---

func (f *Fake) row(id int64, ev *eventRecord) store.EventRow {
	return store.EventRow{
		ID: id, SportID: ev.sportID, CompetitionName: ev.competitionName,
		HomeTeam: ev.homeTeamName, AwayTeam: ev.awayTeamName, StartTime: ev.startTime,
		Status: ev.status, HomeScore: ev.homeScore, AwayScore: ev.awayScore,
	}
}

func (f *Fake) LiveEvents(_ context.Context, sportID int64) ([]store.EventRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.EventRow
	for id, ev := range f.events {
		if ev.sportID == sportID && ev.status == models.StatusLive {
			out = append(out, f.row(id, ev))
		}
	}
	return out, nil
}

func (f *Fake) UpcomingEvents(_ context.Context, sportID int64, window time.Duration) ([]store.EventRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var out []store.EventRow
	for id, ev := range f.events {
		if ev.sportID == sportID && ev.status == models.StatusScheduled &&
			!ev.startTime.Before(now) && ev.startTime.Before(now.Add(window)) {
			out = append(out, f.row(id, ev))
		}
	}
	return out, nil
}

func (f *Fake) UpdateLiveScore(_ context.Context, eventID int64, score models.LiveScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("storetest: event %d not found", eventID)
	}
	home, away := score.HomeScore, score.AwayScore
	ev.homeScore, ev.awayScore = &home, &away
	ev.period = score.Period
	ev.minute = score.Minute
	return nil
}

func (f *Fake) TransitionScheduledToLive(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.status == models.StatusScheduled && !ev.startTime.After(now) {
			ev.status = models.StatusLive
			n++
		}
	}
	return n, nil
}

func (f *Fake) TransitionToFinished(_ context.Context, eventID int64, score models.LiveScore) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return false, fmt.Errorf("storetest: event %d not found", eventID)
	}
	if ev.status == models.StatusFinished {
		return false, nil
	}
	ev.status = models.StatusFinished
	home, away := score.HomeScore, score.AwayScore
	ev.homeScore, ev.awayScore = &home, &away
	return true, nil
}

func (f *Fake) UpsertMarket(_ context.Context, eventID int64, market models.Market) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMarketID++
	market.ID = f.nextMarketID
	market.EventID = eventID
	f.markets[market.ID] = market
	return nil
}

func (f *Fake) StartRun(_ context.Context, jobType, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.runs[id] = models.ScraperRun{
		ID: id, JobType: models.JobType(jobType), Source: source,
		Status: models.RunRunning, StartedAt: time.Now(),
	}
	f.order = append(f.order, id)
	return id, nil
}

func (f *Fake) CompleteRun(_ context.Context, run models.ScraperRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[run.ID]; !ok {
		return fmt.Errorf("storetest: run %s not found", run.ID)
	}
	f.runs[run.ID] = run
	return nil
}

func (f *Fake) RecentRunStatuses(_ context.Context, jobType string, limit int) ([]models.RunStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RunStatus
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		run := f.runs[f.order[i]]
		if string(run.JobType) == jobType {
			out = append(out, run.Status)
		}
	}
	return out, nil
}

func (f *Fake) RecordAlert(_ context.Context, alert models.ScraperAlert, dedupWindow time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := alert.DedupKey()
	if last, ok := f.alerts[key]; ok && time.Since(last) < dedupWindow {
		return false, nil
	}
	f.alerts[key] = time.Now()
	return true, nil
}
