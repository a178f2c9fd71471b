package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/config"
)

// remoteRecord is the wire shape posted to the remote sink, one line of
// newline-delimited JSON per record.
type remoteRecord struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// RemoteSink batches records and flushes them to an HTTP endpoint on a
// ticker or on buffer-full, the same batching shape as the teacher's
// Yandex Cloud Logging handler (BatchSize / FlushInterval) generalized to a
// configurable webhook instead of one cloud vendor's SDK.
type RemoteSink struct {
	url           string
	batchSize     int
	flushInterval time.Duration
	client        *http.Client

	mu      sync.Mutex
	buffer  []remoteRecord
	attrs   []slog.Attr
	groups  []string

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRemoteSink starts a RemoteSink's background flush loop and returns it.
func NewRemoteSink(cfg config.LoggingConfig) (*RemoteSink, error) {
	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf("logging: remote sink enabled but remote_url is empty")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}

	s := &RemoteSink{
		url:           cfg.RemoteURL,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		client:        &http.Client{Timeout: 10 * time.Second},
		stopCh:        make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

func (s *RemoteSink) flushLoop() {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.stopCh:
			s.flush()
			return
		}
	}
}

func (s *RemoteSink) Enabled(context.Context, slog.Level) bool { return true }

func (s *RemoteSink) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	for _, a := range s.attrs {
		attrs[a.Key] = a.Value.Any()
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, remoteRecord{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
		Attrs:   attrs,
	})
	full := len(s.buffer) >= s.batchSize
	s.mu.Unlock()

	if full {
		s.flush()
	}
	return nil
}

func (s *RemoteSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, r := range batch {
		_ = enc.Encode(r)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, &body)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (s *RemoteSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *s
	clone.attrs = append(append([]slog.Attr{}, s.attrs...), attrs...)
	return &clone
}

func (s *RemoteSink) WithGroup(name string) slog.Handler {
	clone := *s
	clone.groups = append(append([]string{}, s.groups...), name)
	return &clone
}

// Close stops the flush loop after a final flush.
func (s *RemoteSink) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
