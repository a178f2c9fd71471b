// Command sync-live-scores is the short-lived job driver of spec §4.9 for
// live scores: one invocation fetches every currently-live event per active
// sport, rotates sources to fill in scores, writes them back, and enqueues
// a settlement message for any match the rotation reports finished.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sportfeed/aggregator/internal/orchestrator"
	"github.com/sportfeed/aggregator/internal/pkg/bootstrap"
	"github.com/sportfeed/aggregator/internal/pkg/health"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/pkg/queueauth"
	"github.com/sportfeed/aggregator/internal/pkg/sourceset"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/queue"
	"github.com/sportfeed/aggregator/internal/runtracker"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/production.yaml"), "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sync-live-scores: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	app, err := bootstrap.Init(ctx, configPath, "sync-live-scores")
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
	sources, err := sourceset.LiveScores(app.Config.Sources, proxyCfg)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}
	orch := orchestrator.NewLiveScores(sources, app.Health, app.ProxyMgr, app.Dispatcher)

	tracker := runtracker.NewTracker(app.Store, app.Dispatcher, nil)
	jobRun, err := tracker.Start(ctx, models.JobSyncLiveScores, "rotation")
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	publisher := queue.NewHTTPPublisher(app.Config.Queue.SettlementQueueURL)
	token, err := queueauth.Sign(app.Config.QueueAuth.Secret, jobRun.ID())
	if err != nil {
		app.Logger.Warn("failed to sign settlement queue token", "error", err)
	}

	if err := syncAllSports(ctx, app, orch, jobRun, publisher, token); err != nil {
		_ = jobRun.Fail(ctx, err)
		metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncLiveScores, Status: models.RunFailed})
		return err
	}
	if err := jobRun.Complete(ctx); err != nil {
		return err
	}
	metrics.ObserveRun(models.ScraperRun{JobType: models.JobSyncLiveScores, Status: models.RunSuccess})
	return nil
}

func syncAllSports(ctx context.Context, app *bootstrap.App, orch *orchestrator.LiveScores, jobRun *runtracker.Run, publisher queue.Publisher, token string) error {
	sports, err := app.Store.ActiveSports(ctx)
	if err != nil {
		return fmt.Errorf("load active sports: %w", err)
	}

	for _, sport := range sports {
		rows, err := app.Store.LiveEvents(ctx, sport.ID)
		if err != nil {
			app.Logger.Error("load live events failed", "sport", sport.Slug, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		events := make([]models.EventToMatch, len(rows))
		for i, r := range rows {
			events[i] = models.EventToMatch{
				EventID: r.ID, HomeTeam: r.HomeTeam, AwayTeam: r.AwayTeam,
				CompetitionName: r.CompetitionName, StartTime: r.StartTime,
			}
		}

		result := orch.Run(ctx, events)
		applyLiveScores(ctx, app, sport.Slug, result, jobRun, publisher, token)
	}
	return nil
}

func applyLiveScores(ctx context.Context, app *bootstrap.App, sport string, result models.LiveScoresResult, jobRun *runtracker.Run, publisher queue.Publisher, token string) {
	for _, eventID := range result.Matched {
		score := result.Scores[eventID]
		jobRun.RecordProcessed(sport)

		if score.IsFinished {
			changed, err := app.Store.TransitionToFinished(ctx, eventID, score)
			if err != nil {
				jobRun.RecordItemError(sport, fmt.Errorf("event %d: transition to finished: %w", eventID, err))
				continue
			}
			jobRun.RecordUpdated(sport)
			if changed {
				msg := models.NewSignedEventFinishedMessage(strconv.FormatInt(eventID, 10), score.HomeScore, score.AwayScore, token)
				if err := publisher.Publish(ctx, msg); err != nil {
					app.Logger.Error("publish settlement message failed", "event_id", eventID, "error", err)
				}
			}
			continue
		}

		if err := app.Store.UpdateLiveScore(ctx, eventID, score); err != nil {
			jobRun.RecordItemError(sport, fmt.Errorf("event %d: update live score: %w", eventID, err))
			continue
		}
		jobRun.RecordUpdated(sport)
	}

	for range result.Unmatched {
		jobRun.RecordProcessed(sport)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
