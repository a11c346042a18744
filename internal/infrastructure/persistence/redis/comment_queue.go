package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT QUEUE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEvent is returned when an event fails validation on enqueue.
	ErrInvalidEvent = errors.New("comment_queue: invalid event")

	// ErrEnqueue is returned when an event could not be appended to the
	// pending queue. Enqueue is the one fail-closed operation here: a
	// silently dropped event would permanently corrupt the durable aggregate.
	ErrEnqueue = errors.New("comment_queue: enqueue failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// CommentQueue is an at-least-once delivery queue for comment lifecycle
// events, decoupling comment-triggered side effects from the write path.
//
// Lifecycle: pending (comment_queue) -> processing (comment_queue:processing)
// -> acknowledged (removed) or dead-lettered (comment_queue:dead_letter,
// capped). A batch claim moves entries between the two lists in one atomic
// server-side script, so concurrent claimers can never obtain the same event.
//
// The queue is drained by a single worker process; Acknowledge clears the
// whole processing list under that assumption. A deployment with multiple
// concurrent drainers must partition into worker-owned processing lists
// instead of sharing this one.
type CommentQueue struct {
	client *Client
	logger *slog.Logger
}

// NewCommentQueue creates a CommentQueue.
func NewCommentQueue(client *Client, logger *slog.Logger) *CommentQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentQueue{
		client: client,
		logger: logger,
	}
}

// popBatchScript atomically moves up to ARGV[1] entries from the head of the
// pending list (KEYS[1]) to the tail of the processing list (KEYS[2]) and
// returns them, preserving FIFO order.
var popBatchScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local batch = redis.call('LRANGE', KEYS[1], 0, max - 1)
if #batch > 0 then
	redis.call('LTRIM', KEYS[1], max, -1)
	for i = 1, #batch do
		redis.call('RPUSH', KEYS[2], batch[i])
	end
end
return batch
`)

// compile-time interface check
var _ comment.Queue = (*CommentQueue)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// PRODUCER SIDE
// ══════════════════════════════════════════════════════════════════════════════

// Push serializes the event and appends it to the tail of the pending queue.
// Missing event IDs and timestamps are filled in before serialization.
//
// Push is fail-closed: serialization and store failures are returned to the
// caller, who decides how to handle a failed enqueue.
func (q *CommentQueue) Push(ctx context.Context, event comment.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if err := q.client.Redis().RPush(ctx, KeyCommentQueue, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONSUMER SIDE
// ══════════════════════════════════════════════════════════════════════════════

// PopBatch atomically claims up to maxCount events: they are moved from the
// pending queue into the processing queue by a single server-side script and
// returned in FIFO order.
//
// Store errors and an empty queue both yield an empty batch; neither is fatal
// to a poller loop. Unparseable payloads are logged and skipped individually
// so one corrupt entry cannot block draining the rest; skipped entries stay
// in the processing list until acknowledged away or dead-lettered by hand.
func (q *CommentQueue) PopBatch(ctx context.Context, maxCount int) []comment.QueuedEvent {
	if maxCount <= 0 {
		return nil
	}

	raw, err := popBatchScript.Run(ctx, q.client.Redis(),
		[]string{KeyCommentQueue, KeyCommentProcessing}, maxCount).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			q.logger.Warn("comment queue pop failed", "error", err)
		}
		return nil
	}

	items, ok := raw.([]any)
	if !ok {
		q.logger.Warn("comment queue pop returned unexpected reply", "type", fmt.Sprintf("%T", raw))
		return nil
	}

	batch := make([]comment.QueuedEvent, 0, len(items))
	for _, item := range items {
		payload, ok := item.(string)
		if !ok {
			payload = fmt.Sprint(item)
		}

		var event comment.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			q.logger.Warn("comment queue entry unparseable, skipping", "error", err, "payload", payload)
			continue
		}

		batch = append(batch, comment.QueuedEvent{Event: event, Payload: payload})
	}

	return batch
}

// Acknowledge marks an entire claimed batch as done by clearing the
// processing queue. No-op for an empty batch. There is no partial ack of a
// subset mid-batch; item-by-item consumers use AcknowledgeOne instead.
func (q *CommentQueue) Acknowledge(ctx context.Context, events []comment.QueuedEvent) {
	if len(events) == 0 {
		return
	}

	if err := q.client.Redis().Del(ctx, KeyCommentProcessing).Err(); err != nil {
		q.logger.Warn("comment queue acknowledge failed", "count", len(events), "error", err)
	}
}

// AcknowledgeOne removes a single occurrence of the given serialized entry
// from the processing queue by value match.
func (q *CommentQueue) AcknowledgeOne(ctx context.Context, payload string) {
	if payload == "" {
		return
	}

	if err := q.client.Redis().LRem(ctx, KeyCommentProcessing, 1, payload).Err(); err != nil {
		q.logger.Warn("comment queue acknowledge-one failed", "error", err)
	}
}

// MoveToDeadLetter gives up on an event after repeated failures: one entry is
// popped off the processing queue, the event is wrapped with failure
// metadata, pushed onto the dead-letter list, and the list is trimmed to its
// most recent entries. All steps execute as one pipelined unit.
//
// A zero firstFailedAt defaults to now (single-attempt failures).
func (q *CommentQueue) MoveToDeadLetter(ctx context.Context, event comment.Event, procErr error, attempts int, firstFailedAt time.Time) {
	now := time.Now().UTC()
	if firstFailedAt.IsZero() {
		firstFailedAt = now
	}

	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
	}

	envelope, err := json.Marshal(comment.DeadLetter{
		Event:         event,
		Error:         errMsg,
		Attempts:      attempts,
		FirstFailedAt: firstFailedAt,
		LastFailedAt:  now,
	})
	if err != nil {
		q.logger.Error("dead-letter envelope serialization failed", "event_id", event.EventID, "error", err)
		return
	}

	pipe := q.client.Pipeline()
	pipe.LPop(ctx, KeyCommentProcessing)
	pipe.RPush(ctx, KeyCommentDeadLetter, envelope)
	pipe.LTrim(ctx, KeyCommentDeadLetter, -DeadLetterMaxLen, -1)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		q.logger.Warn("comment queue dead-letter move failed", "event_id", event.EventID, "error", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE
// ══════════════════════════════════════════════════════════════════════════════

// Health reads queue lengths and the worker watermark in one pipelined round
// trip. Missing values default to zero counts and a nil watermark; a store
// error degrades to an all-zero snapshot rather than failing a dashboard.
func (q *CommentQueue) Health(ctx context.Context) comment.QueueHealth {
	pipe := q.client.Pipeline()
	pendingCmd := pipe.LLen(ctx, KeyCommentQueue)
	processingCmd := pipe.LLen(ctx, KeyCommentProcessing)
	deadCmd := pipe.LLen(ctx, KeyCommentDeadLetter)
	watermarkCmd := pipe.Get(ctx, KeyCommentLastProcessed)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		q.logger.Warn("comment queue health read failed", "error", err)
		return comment.QueueHealth{}
	}

	health := comment.QueueHealth{
		PendingCount:    pendingCmd.Val(),
		ProcessingCount: processingCmd.Val(),
		DeadLetterCount: deadCmd.Val(),
	}

	if raw, err := watermarkCmd.Result(); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			health.LastProcessedAt = &ts
		}
	}

	return health
}

// RecoverOrphans moves events stuck in the processing queue (a worker crashed
// mid-batch) back onto the tail of the pending queue and returns how many
// were recovered. Payloads are re-pushed exactly as stored. Returns 0
// immediately when the processing queue is empty, without a recovery write.
func (q *CommentQueue) RecoverOrphans(ctx context.Context) int {
	length, err := q.client.Redis().LLen(ctx, KeyCommentProcessing).Result()
	if err != nil {
		q.logger.Warn("orphan recovery length read failed", "error", err)
		return 0
	}
	if length == 0 {
		return 0
	}

	orphans, err := q.client.Redis().LRange(ctx, KeyCommentProcessing, 0, -1).Result()
	if err != nil {
		q.logger.Warn("orphan recovery read failed", "error", err)
		return 0
	}
	if len(orphans) == 0 {
		return 0 // drained between the two reads
	}

	pipe := q.client.Pipeline()
	for _, payload := range orphans {
		pipe.RPush(ctx, KeyCommentQueue, payload)
	}
	pipe.Del(ctx, KeyCommentProcessing)

	if _, err := pipe.Exec(ctx); err != nil {
		q.logger.Warn("orphan recovery write failed", "count", len(orphans), "error", err)
		return 0
	}

	q.logger.Info("recovered orphaned events", "count", len(orphans))
	return len(orphans)
}

// MarkProcessed records the worker liveness watermark surfaced by Health.
func (q *CommentQueue) MarkProcessed(ctx context.Context) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := q.client.Redis().Set(ctx, KeyCommentLastProcessed, now, 0).Err(); err != nil {
		q.logger.Warn("comment queue watermark write failed", "error", err)
	}
}
