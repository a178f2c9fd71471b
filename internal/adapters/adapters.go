// Package adapters defines the uniform contract of spec §4.6: every
// source, whatever its transport, is reduced to the same scraped-event
// shape so the matcher can treat them identically.
package adapters

import (
	"context"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// LiveScoresScraper fetches live scores for a set of already-known
// events, matching on whatever identifier the source exposes.
type LiveScoresScraper interface {
	Name() string
	NeedsProxy() bool
	FetchLiveScores(ctx context.Context, events []models.EventToMatch) (models.LiveScoresResult, error)
}

// OddsScraper fetches current odds for one sport.
type OddsScraper interface {
	Name() string
	NeedsProxy() bool
	FetchOdds(ctx context.Context, sport string) ([]models.NormalizedOdds, error)
}

// FixturesScraper fetches upcoming fixtures for one sport over a window.
type FixturesScraper interface {
	Name() string
	NeedsProxy() bool
	FetchFixtures(ctx context.Context, sport string, days int) ([]models.ScrapedFixture, error)
}

// Page is the minimal browser-automation surface the HTML-DOM adapter
// family needs (spec's Design Notes). A chromedp-backed implementation
// and the fakedom test double both satisfy it, so adapter logic never
// imports chromedp directly.
type Page interface {
	// Goto navigates to url and waits for the page to settle.
	Goto(ctx context.Context, url string) error
	// QuerySelectorAll returns the outer text of every element matching
	// selector, in document order.
	QuerySelectorAll(ctx context.Context, selector string) ([]string, error)
	// EvaluateText runs a JS expression and returns its string result.
	EvaluateText(ctx context.Context, expr string) (string, error)
	// Close releases the underlying browser resources.
	Close() error
}

// PageFactory constructs a Page, typically wiring in a proxy.Config and a
// blocked-resource-type list (images/fonts/css/analytics, spec §4.6).
type PageFactory func(ctx context.Context) (Page, error)

// RetryBackoff is the exponential backoff schedule for transient source
// failures (spec §4.6: base 1s, up to 3 attempts). Exported so tests
// driving orchestrators end-to-end can shrink it.
var RetryBackoff = []time.Duration{1 * time.Second, 2 * time.Second}

// WithRetry runs fn up to len(RetryBackoff)+1 times, sleeping the backoff
// schedule between attempts, and returns the last error if every attempt
// fails. Context cancellation aborts immediately.
func WithRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= len(RetryBackoff) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(RetryBackoff[attempt]):
		}
	}
}
