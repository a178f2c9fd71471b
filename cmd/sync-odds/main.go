// Command sync-odds is the short-lived job driver of spec §4.9 for odds:
// one invocation loads upcoming events per active sport, rotates odds
// sources, matches each scraped row to a database event, and upserts the
// match-winner market those rows fill in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sportfeed/aggregator/internal/matcher"
	"github.com/sportfeed/aggregator/internal/orchestrator"
	"github.com/sportfeed/aggregator/internal/pkg/bootstrap"
	"github.com/sportfeed/aggregator/internal/pkg/health"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/pkg/sourceset"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/runtracker"
)

// upcomingWindow bounds how far ahead sync-odds looks for events to price,
// wide enough to cover fixtures scraped a day or two out (spec §4.7).
const upcomingWindow = 48 * time.Hour

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/production.yaml"), "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sync-odds: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	app, err := bootstrap.Init(ctx, configPath, "sync-odds")
	if err != nil {
		return err
	}
	defer app.Close()

	metrics := health.NewMetrics()
	shutdownHealth, err := health.Serve(app.Config.Health.Addr, metrics)
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	defer shutdownHealth(context.Background())

	var proxyCfg *proxy.Config
	if app.ProxyMgr != nil {
		if sel, err := app.ProxyMgr.GetProxy(); err == nil {
			proxyCfg = &sel.Config
		}
	}
	orch := orchestrator.NewOdds(sourceset.Odds(app.Config.Sources, proxyCfg), app.Health, app.ProxyMgr, app.Dispatcher)

	tracker := runtracker.NewTracker(app.Store, app.Dispatcher, nil)
	jobRun, err := tracker.Start(ctx, models.JobSyncOdds, "rotation")
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	if err := syncAllOdds(ctx, app, orch, jobRun); err != nil {
		_ = jobRun.Fail(ctx, err)
		metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncOdds, Status: models.RunFailed})
		return err
	}
	if err := jobRun.Complete(ctx); err != nil {
		return err
	}
	metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncOdds, Status: models.RunSuccess})
	return nil
}

func syncAllOdds(ctx context.Context, app *bootstrap.App, orch *orchestrator.Odds, jobRun *runtracker.Run) error {
	sports, err := app.Store.ActiveSports(ctx)
	if err != nil {
		return fmt.Errorf("load active sports: %w", err)
	}

	for _, sport := range sports {
		rows, err := app.Store.UpcomingEvents(ctx, sport.ID, upcomingWindow)
		if err != nil {
			app.Logger.Error("load upcoming events failed", "sport", sport.Slug, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		dbEvents := make([]matcher.DBEvent, len(rows))
		for i, r := range rows {
			dbEvents[i] = matcher.DBEvent{ID: r.ID, HomeTeam: r.HomeTeam, AwayTeam: r.AwayTeam, StartTime: r.StartTime}
		}

		matches := orch.Run(ctx, sport.Slug, dbEvents)
		for _, m := range matches {
			jobRun.RecordProcessed(sport.Slug)
			market := oddsToMarket(m.Odds)
			if err := app.Store.UpsertMarket(ctx, m.DBEventID, market); err != nil {
				jobRun.RecordItemError(sport.Slug, fmt.Errorf("event %d: upsert market: %w", m.DBEventID, err))
				continue
			}
			jobRun.RecordUpdated(sport.Slug)
		}
	}
	return nil
}

// oddsToMarket builds the match-winner market one NormalizedOdds row fills
// in. Outcomes missing a price (a source that only covers two of the three
// results) are left at their zero odds rather than guessed.
func oddsToMarket(odds models.NormalizedOdds) models.Market {
	market := models.DefaultMatchWinnerMarket(0)
	setOutcome(&market.Outcomes[0], odds.HomeWin)
	setOutcome(&market.Outcomes[1], odds.Draw)
	setOutcome(&market.Outcomes[2], odds.AwayWin)
	return market
}

func setOutcome(o *models.Outcome, price *float64) {
	if price == nil {
		return
	}
	o.Odds = *price
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
