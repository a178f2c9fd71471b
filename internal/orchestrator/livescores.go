// Package orchestrator implements spec §4.7's three rotation strategies:
// one per data type, all sharing the same shape — rotate sources in
// priority/least-recently-used order, skip unhealthy or proxy-starved
// ones, stop early once enough coverage is gathered, and feed every
// attempt's outcome back into the Source Health Tracker and Proxy
// Manager. Rotation is deliberately sequential (spec §5): parallel
// fan-out would waste the early-exit rule and raises detection risk.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/sourcehealth"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

// liveScoreCoverageThreshold is spec §4.7's "≥ 80% of the input events".
const liveScoreCoverageThreshold = 0.80

// rotationJitter is the ±30s random jitter spec §4.7 applies to
// least-recently-used ordering, to disguise the rotation pattern.
const rotationJitter = 30 * time.Second

// LiveScoreSource is one entry in the rotation list.
type LiveScoreSource struct {
	Scraper  adapters.LiveScoresScraper
	Priority int  // lower attempted first
	Free     bool // a free source's coverage can trigger early exit
}

// LiveScores rotates LiveScoreSource entries to fill in scores for a set
// of events known to be in progress.
type LiveScores struct {
	sources    []LiveScoreSource
	health     *sourcehealth.Tracker
	proxyMgr   *proxy.Manager
	dispatcher *alerting.Dispatcher
	lastUsed   map[string]time.Time
	now        func() time.Time
	rand       *rand.Rand
}

// NewLiveScores builds a rotation over sources. health and dispatcher may
// be nil (health defaults to a fresh Tracker; alerts are dropped).
// proxyMgr may be nil when no proxy-requiring source is configured.
func NewLiveScores(sources []LiveScoreSource, health *sourcehealth.Tracker, proxyMgr *proxy.Manager, dispatcher *alerting.Dispatcher) *LiveScores {
	if health == nil {
		health = sourcehealth.NewTracker()
	}
	return &LiveScores{
		sources:    sources,
		health:     health,
		proxyMgr:   proxyMgr,
		dispatcher: dispatcher,
		lastUsed:   make(map[string]time.Time),
		now:        time.Now,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run attempts sources in rotation order until every event has a score or
// the early-exit coverage threshold is reached. It never errors: a
// source's failure is recorded and rotation continues.
func (o *LiveScores) Run(ctx context.Context, events []models.EventToMatch) models.LiveScoresResult {
	total := len(events)
	remaining := make(map[int64]models.EventToMatch, total)
	for _, e := range events {
		remaining[e.EventID] = e
	}

	scores := make(map[int64]models.LiveScore, total)
	var matched []int64

	var proxyAvailable bool
	var selectedProxy proxy.Selected
	if o.proxyMgr != nil {
		sel, err := o.proxyMgr.GetProxy()
		if err == nil {
			selectedProxy = sel
			proxyAvailable = true
		}
	}

	for _, src := range o.orderedSources() {
		if ctx.Err() != nil {
			break
		}
		if len(remaining) == 0 {
			break
		}
		name := src.Scraper.Name()

		if src.Scraper.NeedsProxy() && !proxyAvailable {
			slog.Default().Debug("orchestrator: skipping proxy-required source with no proxy configured", "source", name)
			continue
		}
		if o.health.IsSourceDown(name) {
			slog.Default().Debug("orchestrator: skipping source in cooldown", "source", name)
			continue
		}

		remainingList := make([]models.EventToMatch, 0, len(remaining))
		for _, e := range remaining {
			remainingList = append(remainingList, e)
		}

		var result models.LiveScoresResult
		err := adapters.WithRetry(ctx, func() error {
			r, ferr := src.Scraper.FetchLiveScores(ctx, remainingList)
			if ferr != nil {
				return ferr
			}
			result = r
			return nil
		})

		o.lastUsed[name] = o.now()

		if err != nil {
			o.recordFailure(ctx, name, err)
			if proxyAvailable && src.Scraper.NeedsProxy() {
				o.proxyMgr.MarkFailed(selectedProxy.Provider)
			}
			continue
		}

		o.health.RecordSuccess(name)
		if proxyAvailable && src.Scraper.NeedsProxy() {
			o.proxyMgr.MarkSuccess(selectedProxy.Provider)
		}

		for id, score := range result.Scores {
			if _, stillOpen := remaining[id]; !stillOpen {
				continue // already claimed by an earlier source this tick
			}
			scores[id] = score
			matched = append(matched, id)
			delete(remaining, id)
		}

		if src.Free && total > 0 {
			coverage := float64(len(matched)) / float64(total)
			if coverage >= liveScoreCoverageThreshold {
				break
			}
		}
	}

	unmatched := make([]int64, 0, len(remaining))
	for id := range remaining {
		unmatched = append(unmatched, id)
	}
	sort.Slice(unmatched, func(i, j int) bool { return unmatched[i] < unmatched[j] })
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })

	return models.LiveScoresResult{Scores: scores, Matched: matched, Unmatched: unmatched}
}

func (o *LiveScores) recordFailure(ctx context.Context, source string, err error) {
	reason := err.Error()
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if sourcehealth.IsBlocked(statusErr.StatusCode, statusErr.Body) {
			reason = "blocked: " + reason
		}
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

func alertTypeFor(state sourcehealth.State) models.AlertType {
	if state == sourcehealth.StateDown {
		return models.AlertSourceDown
	}
	return models.AlertSourceDegraded
}

// orderedSources sorts by priority, then least-recently-used with jitter
// within equal priority (spec §4.7).
func (o *LiveScores) orderedSources() []LiveScoreSource {
	out := make([]LiveScoreSource, len(o.sources))
	copy(out, o.sources)

	jittered := make(map[string]time.Time, len(out))
	for _, s := range out {
		name := s.Scraper.Name()
		last := o.lastUsed[name]
		jitterSeconds := o.rand.Int63n(int64(2*rotationJitter)) - int64(rotationJitter)
		jittered[name] = last.Add(time.Duration(jitterSeconds))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return jittered[out[i].Scraper.Name()].Before(jittered[out[j].Scraper.Name()])
	})
	return out
}
