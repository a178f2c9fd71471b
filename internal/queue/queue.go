// Package queue implements the settlement queue client of spec §6: a FIFO
// queue partitioned by event_id so a given event's finished-match message
// is processed exactly once within that partition.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// Publisher enqueues settlement messages. EventID is also the FIFO
// partition key (spec §6).
type Publisher interface {
	Publish(ctx context.Context, msg models.SettlementMessage) error
}

// HTTPPublisher posts each message as its own HTTP request to a FIFO
// queue endpoint, carrying the partition key as a header the platform's
// queue binding maps onto its native group-id concept. Generalizes the
// ambient HTTP-batch-sink pattern used for remote logging to this
// queue's at-least-once-per-partition delivery need.
type HTTPPublisher struct {
	url    string
	client *http.Client
}

// NewHTTPPublisher builds a Publisher that posts to queueURL (spec §6's
// SETTLEMENT_QUEUE_URL).
func NewHTTPPublisher(queueURL string) *HTTPPublisher {
	return &HTTPPublisher{
		url:    queueURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, msg models.SettlementMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("queue: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Message-Group-Id", msg.EventID)
	req.Header.Set("X-Message-Dedup-Id", msg.EventID)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("queue: publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("queue: publish: unexpected status %d", resp.StatusCode)
	}
	return nil
}
