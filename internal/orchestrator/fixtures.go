package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/sourcehealth"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// DefaultFixtureFloors are the per-sport minimums of spec §4.7's example
// ("e.g., 20 for football, 10 basketball, 3 tennis"); callers may override.
var DefaultFixtureFloors = map[string]int{
	"football":   20,
	"basketball": 10,
	"tennis":     3,
}

// FixturesSource is one rotation entry; Priority 0 is the preferred
// (primary) source, e.g. Flashscore, with others as fallback.
type FixturesSource struct {
	Scraper  adapters.FixturesScraper
	Priority int
}

// Fixtures prefers its primary source and falls back to, or merges with,
// the rest when the primary under-delivers for a sport's floor.
type Fixtures struct {
	sources    []FixturesSource
	floors     map[string]int
	health     *sourcehealth.Tracker
	proxyMgr   *proxy.Manager
	dispatcher *alerting.Dispatcher
	lastUsed   map[string]time.Time
	now        func() time.Time
}

func NewFixtures(sources []FixturesSource, floors map[string]int, health *sourcehealth.Tracker, proxyMgr *proxy.Manager, dispatcher *alerting.Dispatcher) *Fixtures {
	if health == nil {
		health = sourcehealth.NewTracker()
	}
	if floors == nil {
		floors = DefaultFixtureFloors
	}
	return &Fixtures{
		sources: sources, floors: floors, health: health, proxyMgr: proxyMgr,
		dispatcher: dispatcher, lastUsed: make(map[string]time.Time), now: time.Now,
	}
}

// Run fetches fixtures for sport over the given day window, trying the
// primary source first and only continuing to fallbacks when the floor
// for sport is not met, merging every source it does try by dedup key.
func (o *Fixtures) Run(ctx context.Context, sport string, days int) []models.ScrapedFixture {
	floor := o.floors[sport]

	var proxyAvailable bool
	var selectedProxy proxy.Selected
	if o.proxyMgr != nil {
		if sel, err := o.proxyMgr.GetProxy(); err == nil {
			selectedProxy = sel
			proxyAvailable = true
		}
	}

	sources := make([]FixturesSource, len(o.sources))
	copy(sources, o.sources)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Priority < sources[j].Priority })

	seen := make(map[string]bool)
	var merged []models.ScrapedFixture

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		name := src.Scraper.Name()

		if src.Scraper.NeedsProxy() && !proxyAvailable {
			slog.Default().Debug("orchestrator: skipping proxy-required fixtures source with no proxy configured", "source", name)
			continue
		}
		if o.health.IsSourceDown(name) {
			continue
		}

		var fixtures []models.ScrapedFixture
		err := adapters.WithRetry(ctx, func() error {
			r, ferr := src.Scraper.FetchFixtures(ctx, sport, days)
			if ferr != nil {
				return ferr
			}
			fixtures = r
			return nil
		})
		o.lastUsed[name] = o.now()

		if err != nil {
			o.recordFixturesFailure(ctx, name, err)
			if proxyAvailable && src.Scraper.NeedsProxy() {
				o.proxyMgr.MarkFailed(selectedProxy.Provider)
			}
			continue
		}

		o.health.RecordSuccess(name)
		if proxyAvailable && src.Scraper.NeedsProxy() {
			o.proxyMgr.MarkSuccess(selectedProxy.Provider)
		}

		for _, fx := range fixtures {
			key := dedupKey(sport, fx)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, fx)
		}

		if len(merged) >= floor {
			break // primary (or whichever source just ran) already met the floor
		}
	}

	return merged
}

// dedupKey implements spec §4.7's fixture merge key: (sport,
// normalized_home, normalized_away, start_hour_bucket).
func dedupKey(sport string, fx models.ScrapedFixture) string {
	bucket := fx.StartTime.UTC().Truncate(time.Hour)
	return fmt.Sprintf("%s|%s|%s|%s", sport, normalize.Normalize(fx.HomeTeam), normalize.Normalize(fx.AwayTeam), bucket.Format(time.RFC3339))
}

func (o *Fixtures) recordFixturesFailure(ctx context.Context, source string, err error) {
	reason := err.Error()
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && sourcehealth.IsBlocked(statusErr.StatusCode, statusErr.Body) {
		reason = "blocked: " + reason
	}
	alert := o.health.RecordFailure(source, reason)
	if alert != nil && o.dispatcher != nil {
		o.dispatcher.Dispatch(ctx, models.ScraperAlert{
			AlertType: alertTypeFor(alert.State),
			Severity:  models.AlertSeverity(alert.Severity),
			Message:   alert.Message,
			Metadata:  map[string]any{"source": alert.Source},
			CreatedAt: alert.EmittedAt,
		})
	}
}
