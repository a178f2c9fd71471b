package queue

import (
	"context"
	"testing"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

func TestInProcess_PreservesFIFOOrderPerPartition(t *testing.T) {
	q := NewInProcess()
	ctx := context.Background()

	// A repeat event_finished for evt-1 would be deduplicated, so the second
	// message in the partition carries a different type.
	_ = q.Publish(ctx, models.NewEventFinishedMessage("evt-1", 1, 0))
	second := models.NewEventFinishedMessage("evt-1", 2, 0)
	second.Type = "event_corrected"
	_ = q.Publish(ctx, second)

	msgs := q.Messages("evt-1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Result.HomeScore != 1 || msgs[1].Result.HomeScore != 2 {
		t.Error("expected FIFO order preserved within the partition")
	}
}

func TestInProcess_DuplicatePublishIsNoOp(t *testing.T) {
	q := NewInProcess()
	ctx := context.Background()

	msg := models.NewEventFinishedMessage("evt-2", 3, 1)
	_ = q.Publish(ctx, msg)
	_ = q.Publish(ctx, msg)

	if got := len(q.Messages("evt-2")); got != 1 {
		t.Errorf("expected exactly-once delivery within the partition, got %d messages", got)
	}
}

func TestInProcess_DifferentPartitionsAreIndependent(t *testing.T) {
	q := NewInProcess()
	ctx := context.Background()

	_ = q.Publish(ctx, models.NewEventFinishedMessage("evt-a", 1, 1))
	_ = q.Publish(ctx, models.NewEventFinishedMessage("evt-b", 2, 2))

	if len(q.Messages("evt-a")) != 1 || len(q.Messages("evt-b")) != 1 {
		t.Error("expected each partition to hold only its own messages")
	}
}
