// Package sourceset wires the concrete source adapters of spec §4.6 into
// the rotation lists each orchestrator needs, grounded on the teacher's
// cmd/fetch-fonbet practice of building one adapter per invocation rather
// than keeping a long-lived registry.
package sourceset

import (
	"context"
	"time"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/adapters/chromepage"
	"github.com/sportfeed/aggregator/internal/adapters/htmladapter"
	"github.com/sportfeed/aggregator/internal/adapters/jsonapi"
	"github.com/sportfeed/aggregator/internal/orchestrator"
	"github.com/sportfeed/aggregator/internal/pkg/config"
	"github.com/sportfeed/aggregator/internal/pkg/ratelimit"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/transport/httpclient"
)

const defaultJSONTimeout = 20 * time.Second
const defaultBrowserTimeout = 45 * time.Second

// clients builds the two JSON HTTP clients every jsonapi adapter set draws
// from: one direct, one routed through proxyCfg (nil proxyCfg degrades the
// proxied client to a direct one, so proxy-needing adapters still build —
// the orchestrator's own NeedsProxy/health bookkeeping is what actually
// decides whether to skip them for a given run).
// clients shares one ratelimit.Limiter between the direct and proxied
// clients it builds: spec §5's 30/min cap is per domain, and the direct
// and proxied clients can both end up hitting the same host across a
// single invocation's source rotation.
func clients(cfg config.SourcesConfig, proxyCfg *proxy.Config) (direct, proxied *httpclient.Client, err error) {
	timeout := cfg.JSONTimeout
	if timeout <= 0 {
		timeout = defaultJSONTimeout
	}
	limiter := ratelimit.New()
	direct, err = httpclient.New(nil, cfg.UserAgent, timeout, limiter)
	if err != nil {
		return nil, nil, err
	}
	proxied, err = httpclient.New(proxyCfg, cfg.UserAgent, timeout, limiter)
	if err != nil {
		return nil, nil, err
	}
	return direct, proxied, nil
}

// pageFactory builds the adapters.PageFactory the HTML-DOM family shares,
// binding proxyCfg and the configured browser timeout into every Page it
// constructs.
func pageFactory(cfg config.SourcesConfig, proxyCfg *proxy.Config) adapters.PageFactory {
	timeout := cfg.BrowserTimeout
	if timeout <= 0 {
		timeout = defaultBrowserTimeout
	}
	return func(ctx context.Context) (adapters.Page, error) {
		return chromepage.New(ctx, chromepage.Options{
			UserAgent: cfg.UserAgent,
			Proxy:     proxyCfg,
			Timeout:   timeout,
		})
	}
}

// LiveScores builds the live-scores rotation: free JSON sources first
// (ESPN, SofaScore), then proxy-gated JSON sources, then the HTML-DOM
// fallbacks (spec §4.7's example ordering).
func LiveScores(cfg config.SourcesConfig, proxyCfg *proxy.Config) ([]orchestrator.LiveScoreSource, error) {
	direct, proxied, err := clients(cfg, proxyCfg)
	if err != nil {
		return nil, err
	}
	pf := pageFactory(cfg, proxyCfg)

	return []orchestrator.LiveScoreSource{
		{Scraper: jsonapi.NewESPN(direct), Priority: 0, Free: true},
		{Scraper: jsonapi.NewSofaScore(direct), Priority: 0, Free: true},
		{Scraper: jsonapi.NewFotMob(proxied), Priority: 1},
		{Scraper: jsonapi.NewLiveScore(proxied), Priority: 1},
		{Scraper: jsonapi.NewThe365Scores(proxied), Priority: 2},
		{Scraper: htmladapter.NewFlashscore(pf), Priority: 2, Free: true},
		{Scraper: htmladapter.NewUnderstat(pf), Priority: 3},
	}, nil
}

// Fixtures builds the fixtures rotation, Flashscore first per spec §4.7's
// primary-source example.
func Fixtures(cfg config.SourcesConfig, proxyCfg *proxy.Config) ([]orchestrator.FixturesSource, error) {
	direct, proxied, err := clients(cfg, proxyCfg)
	if err != nil {
		return nil, err
	}
	pf := pageFactory(cfg, proxyCfg)

	return []orchestrator.FixturesSource{
		{Scraper: htmladapter.NewFlashscore(pf), Priority: 0},
		{Scraper: jsonapi.NewSofaScore(direct), Priority: 1},
		{Scraper: jsonapi.NewFotMob(proxied), Priority: 2}, // FotMob.NeedsProxy() == true
	}, nil
}

// Odds builds the odds rotation. Both known odds sources need a proxy.
func Odds(cfg config.SourcesConfig, proxyCfg *proxy.Config) []orchestrator.OddsSource {
	pf := pageFactory(cfg, proxyCfg)
	return []orchestrator.OddsSource{
		{Scraper: htmladapter.NewOddschecker(pf), Priority: 0},
		{Scraper: htmladapter.NewOddsPortal(pf), Priority: 1},
	}
}
