// Command sync-fixtures is the short-lived job driver of spec §4.9 for
// fixtures: one invocation rotates fixture sources per active sport and
// reconciles every result through the Event Deduplicator so at most one
// event row exists per real-world match.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sportfeed/aggregator/internal/dedup"
	"github.com/sportfeed/aggregator/internal/normalize"
	"github.com/sportfeed/aggregator/internal/orchestrator"
	"github.com/sportfeed/aggregator/internal/pkg/bootstrap"
	"github.com/sportfeed/aggregator/internal/pkg/health"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/pkg/sourceset"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/runtracker"
)

// fixtureLookaheadDays is how far ahead each fixtures run looks, per
// spec §4.7's fixture-scraping window.
const fixtureLookaheadDays = 3

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/production.yaml"), "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sync-fixtures: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	app, err := bootstrap.Init(ctx, configPath, "sync-fixtures")
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

	floors := app.Config.Sources.MinFixturesPerSport
	if len(floors) == 0 {
		floors = orchestrator.DefaultFixtureFloors
	}

	var proxyCfg *proxy.Config
	if app.ProxyMgr != nil {
		if sel, err := app.ProxyMgr.GetProxy(); err == nil {
			proxyCfg = &sel.Config
		}
	}
	sources, err := sourceset.Fixtures(app.Config.Sources, proxyCfg)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}
	orch := orchestrator.NewFixtures(sources, floors, app.Health, app.ProxyMgr, app.Dispatcher)

	tracker := runtracker.NewTracker(app.Store, app.Dispatcher, floors)
	jobRun, err := tracker.Start(ctx, models.JobSyncFixtures, "rotation")
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	resolver := normalize.NewResolver(app.Store, app.Logger)
	deduper := dedup.NewDeduplicator(app.Store, resolver)

	if err := syncAllFixtures(ctx, app, orch, deduper, jobRun); err != nil {
		_ = jobRun.Fail(ctx, err)
		metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncFixtures, Status: models.RunFailed})
		return err
	}
	if err := jobRun.Complete(ctx); err != nil {
		return err
	}
	metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncFixtures, Status: models.RunSuccess})
	return nil
}

func syncAllFixtures(ctx context.Context, app *bootstrap.App, orch *orchestrator.Fixtures, deduper *dedup.Deduplicator, jobRun *runtracker.Run) error {
	sports, err := app.Store.ActiveSports(ctx)
	if err != nil {
		return fmt.Errorf("load active sports: %w", err)
	}

	for _, sport := range sports {
		fixtures := orch.Run(ctx, sport.Slug, fixtureLookaheadDays)
		for _, fx := range fixtures {
			jobRun.RecordProcessed(sport.Slug)

			result, err := deduper.FindOrCreateEvent(ctx, dedup.ScrapedFixtureInput{
				Sport:       sport.Slug,
				SportID:     sport.ID,
				Competition: fx.CompetitionName,
				HomeTeam:    fx.HomeTeam,
				AwayTeam:    fx.AwayTeam,
				StartTime:   fx.StartTime,
				Source:      fx.SourceName,
				ExternalID:  fx.SourceID,
			})
			if err != nil {
				jobRun.RecordItemError(sport.Slug, fmt.Errorf("fixture %s v %s: reconcile: %w", fx.HomeTeam, fx.AwayTeam, err))
				continue
			}
			if result.IsNew {
				jobRun.RecordCreated(sport.Slug)
			} else {
				jobRun.RecordUpdated(sport.Slug)
			}
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
