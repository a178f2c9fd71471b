package logging

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/sportfeed/aggregator/internal/pkg/config"
)

// Setup builds the process-global logger: always a text handler on stdout,
// plus an optional batching remote sink when cfg.RemoteEnabled is set. It
// installs the result as slog's default and returns it.
func Setup(cfg config.LoggingConfig, serviceName string) (*slog.Logger, error) {
	if cfg.ServiceLabel == "" {
		cfg.ServiceLabel = serviceName
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelFromString(cfg.Level)}),
	}

	if cfg.RemoteEnabled {
		sink, err := NewRemoteSink(cfg)
		if err != nil {
			log.Printf("warning: failed to initialize remote log sink: %v", err)
			log.Println("continuing with stdout logging only")
		} else {
			handlers = append(handlers, sink)
		}
	}

	logger := slog.New(&MultiHandler{handlers: handlers}).With("service", cfg.ServiceLabel)
	slog.SetDefault(logger)
	return logger, nil
}

func levelFromString(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MultiHandler fans a record out to every inner handler, keeping them all
// in sync across With/WithGroup calls.
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var lastErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}
