package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/matcher"
	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/sourcehealth"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// oddsRowStopCount is spec §4.7's "stops after ≥ 50 odds rows are
// gathered".
const oddsRowStopCount = 50

// OddsSource is one rotation entry for the odds orchestrator.
type OddsSource struct {
	Scraper  adapters.OddsScraper
	Priority int
}

// OddsMatch pairs one scraped odds row to the database event it was
// matched against.
type OddsMatch struct {
	DBEventID  int64
	Odds       models.NormalizedOdds
	Confidence float64
}

// Odds rotates OddsSource entries for one sport, normalizing and matching
// each source's rows to known database events.
type Odds struct {
	sources    []OddsSource
	health     *sourcehealth.Tracker
	proxyMgr   *proxy.Manager
	dispatcher *alerting.Dispatcher
	lastUsed   map[string]time.Time
	now        func() time.Time
}

func NewOdds(sources []OddsSource, health *sourcehealth.Tracker, proxyMgr *proxy.Manager, dispatcher *alerting.Dispatcher) *Odds {
	if health == nil {
		health = sourcehealth.NewTracker()
	}
	return &Odds{
		sources: sources, health: health, proxyMgr: proxyMgr, dispatcher: dispatcher,
		lastUsed: make(map[string]time.Time), now: time.Now,
	}
}

// Run rotates sources for sport against dbEvents (candidates for this
// sport's matching window) until oddsRowStopCount rows have matched or
// every source has been tried.
func (o *Odds) Run(ctx context.Context, sport string, dbEvents []matcher.DBEvent) []OddsMatch {
	var results []OddsMatch

	var proxyAvailable bool
	var selectedProxy proxy.Selected
	if o.proxyMgr != nil {
		if sel, err := o.proxyMgr.GetProxy(); err == nil {
			selectedProxy = sel
			proxyAvailable = true
		}
	}

	sources := make([]OddsSource, len(o.sources))
	copy(sources, o.sources)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Priority < sources[j].Priority })

	for _, src := range sources {
		if ctx.Err() != nil || len(results) >= oddsRowStopCount {
			break
		}
		name := src.Scraper.Name()

		if src.Scraper.NeedsProxy() && !proxyAvailable {
			slog.Default().Debug("orchestrator: skipping proxy-required odds source with no proxy configured", "source", name)
			continue
		}
		if o.health.IsSourceDown(name) {
			continue
		}

		var rows []models.NormalizedOdds
		err := adapters.WithRetry(ctx, func() error {
			r, ferr := src.Scraper.FetchOdds(ctx, sport)
			if ferr != nil {
				return ferr
			}
			rows = r
			return nil
		})
		o.lastUsed[name] = o.now()

		if err != nil {
			o.recordOddsFailure(ctx, name, err)
			if proxyAvailable && src.Scraper.NeedsProxy() {
				o.proxyMgr.MarkFailed(selectedProxy.Provider)
			}
			continue
		}

		o.health.RecordSuccess(name)
		if proxyAvailable && src.Scraper.NeedsProxy() {
			o.proxyMgr.MarkSuccess(selectedProxy.Provider)
		}

		results = append(results, matchOddsRows(rows, dbEvents)...)
	}

	return results
}

// matchOddsRows matches each row independently (unlike live-scores/dedup,
// odds rows from different sources for the same event are not mutually
// exclusive — every matched source's price feeds the same market).
func matchOddsRows(rows []models.NormalizedOdds, dbEvents []matcher.DBEvent) []OddsMatch {
	var out []OddsMatch
	for _, row := range rows {
		bestIdx := -1
		var bestConf float64
		for i, de := range dbEvents {
			if row.StartTime.IsZero() || !models.WithinDedupWindow(row.StartTime, de.StartTime, matcher.WindowFixtures) {
				continue
			}
			homeConf := normalize.MatchTeamNames(row.HomeTeam, de.HomeTeam)
			awayConf := normalize.MatchTeamNames(row.AwayTeam, de.AwayTeam)
			if homeConf < matcher.ThresholdOdds || awayConf < matcher.ThresholdOdds {
				continue
			}
			avg := (homeConf + awayConf) / 2
			if bestIdx == -1 || avg > bestConf {
				bestIdx, bestConf = i, avg
			}
		}
		if bestIdx == -1 {
			continue
		}
		out = append(out, OddsMatch{DBEventID: dbEvents[bestIdx].ID, Odds: row, Confidence: bestConf})
	}
	return out
}

func (o *Odds) recordOddsFailure(ctx context.Context, source string, err error) {
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
