// Package health exposes the Run Tracker's outcome as Prometheus gauges and
// counters on a small HTTP server, grounded on the teacher's health-server
// idiom (a background-servable /healthz endpoint per process) but swapping
// its parser-registry checks for this engine's run/alert/source metrics.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/sourcehealth"
)

// Metrics is the set of Prometheus collectors a job invocation reports to.
// Since every invocation is short-lived (spec §5), the server this backs
// only lives for the invocation's duration: long enough for a sidecar
// scrape in development, and a home for the same numbers the Dispatcher
// already pushes to alert channels in production.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	AlertsTotal       *prometheus.CounterVec
	SourceHealthState *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewMetrics builds a fresh, unregistered-with-default-registry metrics
// set, so multiple short-lived processes in the same test binary don't
// collide on prometheus' global registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "Count of completed job invocations by job_type and status.",
		}, []string{"job_type", "status"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_alerts_total",
			Help: "Count of alerts emitted by alert_type.",
		}, []string{"alert_type"}),
		SourceHealthState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "source_health_state",
			Help: "Current source health state (0=healthy, 1=degraded, 2=down) by source.",
		}, []string{"source"}),
		registry: reg,
	}
	reg.MustRegister(m.RunsTotal, m.AlertsTotal, m.SourceHealthState)
	return m
}

// ObserveRun records one completed run's outcome.
func (m *Metrics) ObserveRun(run models.ScraperRun) {
	m.RunsTotal.WithLabelValues(string(run.JobType), string(run.Status)).Inc()
}

// ObserveAlert records one emitted alert.
func (m *Metrics) ObserveAlert(alert models.ScraperAlert) {
	m.AlertsTotal.WithLabelValues(string(alert.AlertType)).Inc()
}

// ObserveSourceHealth records a source's current state.
func (m *Metrics) ObserveSourceHealth(source string, state sourcehealth.State) {
	var v float64
	switch state {
	case sourcehealth.StateDegraded:
		v = 1
	case sourcehealth.StateDown:
		v = 2
	}
	m.SourceHealthState.WithLabelValues(source).Set(v)
}

// Serve starts an HTTP server exposing /metrics and /healthz, returning a
// shutdown func the caller should defer. addr == "" disables the server
// and returns a no-op shutdown.
func Serve(addr string, m *Metrics) (shutdown func(context.Context) error, err error) {
	if addr == "" {
		return func(context.Context) error { return nil }, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}, nil
}
