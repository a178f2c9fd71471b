// Command transition-events is the short-lived job driver of spec §4.9 for
// the scheduled→live transition: a single SQL statement flips every
// scheduled event whose start_time has passed, with a distributed lock
// guarding against two overlapping ~1m cron firings racing the same
// transition.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/bootstrap"
	"github.com/sportfeed/aggregator/internal/pkg/health"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/runtracker"
)

// lockTTL generously outlasts the single UPDATE statement this driver runs,
// so a held lock always expires well before the next ~1m cron firing even
// if this invocation is killed mid-run.
const lockTTL = 30 * time.Second

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/production.yaml"), "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "transition-events: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	app, err := bootstrap.Init(ctx, configPath, "transition-events")
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

	release, acquired, err := app.Cache.AcquireJobLock(ctx, string(models.JobTransitionEvents), lockTTL)
	if err != nil {
		return fmt.Errorf("acquire job lock: %w", err)
	}
	if !acquired {
		app.Logger.Info("transition-events: another invocation already holds the lock, skipping")
		return nil
	}
	defer release()

	tracker := runtracker.NewTracker(app.Store, app.Dispatcher, nil)
	jobRun, err := tracker.Start(ctx, models.JobTransitionEvents, "scheduler")
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	count, err := app.Store.TransitionScheduledToLive(ctx, time.Now())
	if err != nil {
		_ = jobRun.Fail(ctx, err)
		metrics.ObserveRun(models.ScraperRun{JobType: models.JobTransitionEvents, Status: models.RunFailed})
		return fmt.Errorf("transition scheduled to live: %w", err)
	}

	for i := 0; i < count; i++ {
		jobRun.RecordProcessed("all")
		jobRun.RecordUpdated("all")
	}
	if err := jobRun.Complete(ctx); err != nil {
		return err
	}
	metrics.ObserveRun(models.ScraperRun{JobType: models.JobTransitionEvents, Status: models.RunSuccess})
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
