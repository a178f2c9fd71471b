package queue

import (
	"context"
	"sync"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// InProcess is a Publisher test double that preserves per-partition FIFO
// order and deduplicates a message already delivered for its event_id
// partition, mirroring the platform's exactly-once-per-partition
// guarantee (spec §6) without a real broker.
type InProcess struct {
	mu         sync.Mutex
	partitions map[string][]models.SettlementMessage
	delivered  map[string]bool
}

func NewInProcess() *InProcess {
	return &InProcess{
		partitions: make(map[string][]models.SettlementMessage),
		delivered:  make(map[string]bool),
	}
}

func (q *InProcess) Publish(_ context.Context, msg models.SettlementMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := msg.EventID + "|" + msg.Type
	if q.delivered[key] {
		return nil // exactly-once within the partition: a repeat publish is a no-op
	}
	q.delivered[key] = true
	q.partitions[msg.EventID] = append(q.partitions[msg.EventID], msg)
	return nil
}

// Messages returns the messages delivered for one partition, in FIFO
// order.
func (q *InProcess) Messages(eventID string) []models.SettlementMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.SettlementMessage(nil), q.partitions[eventID]...)
}
