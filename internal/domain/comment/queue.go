package comment

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// QueuedEvent pairs a decoded event with the exact serialized payload it was
// stored under. Acknowledging an entry must use the original payload bytes,
// not a re-serialization.
type QueuedEvent struct {
	Event   Event
	Payload string
}

// QueueHealth is the operational snapshot exposed to health dashboards.
type QueueHealth struct {
	PendingCount    int64      `json:"pending_count"`
	ProcessingCount int64      `json:"processing_count"`
	DeadLetterCount int64      `json:"dead_letter_count"`
	LastProcessedAt *time.Time `json:"last_processed_at"`
}

// Queue is the at-least-once delivery contract for comment lifecycle events.
// The implementation lives in the infrastructure layer.
//
// Push is fail-closed: enqueue failures surface to the caller, because a
// silently dropped event permanently corrupts the durable aggregate. All
// consumer-side and maintenance operations are fail-open and degrade to
// empty/zero results so a store outage never crashes a poller loop.
type Queue interface {
	// Push appends an event to the tail of the pending queue.
	Push(ctx context.Context, event Event) error

	// PopBatch atomically claims up to maxCount pending events, moving them
	// into the processing queue. FIFO under a single consumer.
	PopBatch(ctx context.Context, maxCount int) []QueuedEvent

	// Acknowledge marks an entire claimed batch done (single-drainer only).
	Acknowledge(ctx context.Context, events []QueuedEvent)

	// AcknowledgeOne removes one processing entry by exact payload match.
	AcknowledgeOne(ctx context.Context, payload string)

	// MoveToDeadLetter gives up on an event, retaining it with failure
	// metadata on a capped dead-letter list.
	MoveToDeadLetter(ctx context.Context, event Event, procErr error, attempts int, firstFailedAt time.Time)

	// Health reports queue depths and the worker liveness watermark.
	Health(ctx context.Context) QueueHealth

	// RecoverOrphans moves events stranded in the processing queue by a
	// crashed worker back to the pending queue, returning the count moved.
	RecoverOrphans(ctx context.Context) int

	// MarkProcessed records the liveness watermark surfaced by Health.
	MarkProcessed(ctx context.Context)
}
