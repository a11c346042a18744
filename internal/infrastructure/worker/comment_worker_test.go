package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── fakes ───────────────────────────────────────────────────────────────────

type deadLettered struct {
	event    comment.Event
	attempts int
}

type fakeQueue struct {
	mu sync.Mutex

	pending       []comment.QueuedEvent
	acked         []string
	deadLettered  []deadLettered
	markedCount   int
	orphans       int
	orphanedCalls int
}

func (f *fakeQueue) Push(context.Context, comment.Event) error { return nil }

func (f *fakeQueue) PopBatch(_ context.Context, maxCount int) []comment.QueuedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if maxCount > len(f.pending) {
		maxCount = len(f.pending)
	}
	batch := f.pending[:maxCount]
	f.pending = f.pending[maxCount:]
	return batch
}

func (f *fakeQueue) Acknowledge(context.Context, []comment.QueuedEvent) {}

func (f *fakeQueue) AcknowledgeOne(_ context.Context, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, payload)
}

func (f *fakeQueue) MoveToDeadLetter(_ context.Context, e comment.Event, _ error, attempts int, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLettered = append(f.deadLettered, deadLettered{event: e, attempts: attempts})
}

func (f *fakeQueue) Health(context.Context) comment.QueueHealth { return comment.QueueHealth{} }

func (f *fakeQueue) RecoverOrphans(context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orphanedCalls++
	return f.orphans
}

func (f *fakeQueue) MarkProcessed(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedCount++
}

// fakeRepo fails Apply for clip IDs listed in failing.
type fakeRepo struct {
	mu      sync.Mutex
	applied []comment.Event
	failing map[string]bool
}

func (f *fakeRepo) Apply(_ context.Context, e comment.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[e.ClipID] {
		return errors.New("durable store down")
	}
	f.applied = append(f.applied, e)
	return nil
}

func queuedEvent(clipID string) comment.QueuedEvent {
	return comment.QueuedEvent{
		Event:   comment.Event{EventID: "evt-" + clipID, ClipID: clipID, ActorKey: "u", Action: comment.ActionCreated},
		Payload: `{"clip_id":"` + clipID + `"}`,
	}
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestDrainOnce_AppliesAndAcknowledgesEachEvent(t *testing.T) {
	queue := &fakeQueue{pending: []comment.QueuedEvent{queuedEvent("clip-1"), queuedEvent("clip-2")}}
	repo := &fakeRepo{}
	w := NewCommentWorker(queue, repo, DefaultConfig(), nil)

	w.drainOnce(context.Background())

	require.Len(t, repo.applied, 2)
	assert.Equal(t, "clip-1", repo.applied[0].ClipID)
	assert.Equal(t, "clip-2", repo.applied[1].ClipID)

	// Each event is acknowledged individually by payload, then the liveness
	// watermark is touched once for the batch.
	assert.Equal(t, []string{queuedEvent("clip-1").Payload, queuedEvent("clip-2").Payload}, queue.acked)
	assert.Equal(t, 1, queue.markedCount)
	assert.Empty(t, queue.deadLettered)
}

func TestDrainOnce_ExhaustedEventIsDeadLettered(t *testing.T) {
	queue := &fakeQueue{pending: []comment.QueuedEvent{queuedEvent("clip-bad"), queuedEvent("clip-ok")}}
	repo := &fakeRepo{failing: map[string]bool{"clip-bad": true}}
	w := NewCommentWorker(queue, repo, DefaultConfig(), nil)

	w.drainOnce(context.Background())

	// The poisoned event did not block the rest of the batch.
	require.Len(t, repo.applied, 1)
	assert.Equal(t, "clip-ok", repo.applied[0].ClipID)
	assert.Equal(t, []string{queuedEvent("clip-ok").Payload}, queue.acked)

	require.Len(t, queue.deadLettered, 1)
	assert.Equal(t, "clip-bad", queue.deadLettered[0].event.ClipID)
	assert.Equal(t, 3, queue.deadLettered[0].attempts)

	// The watermark still moves: it tracks drain liveness, not batch success.
	assert.Equal(t, 1, queue.markedCount)
}

func TestDrainOnce_EmptyQueueLeavesWatermarkAlone(t *testing.T) {
	queue := &fakeQueue{}
	w := NewCommentWorker(queue, &fakeRepo{}, DefaultConfig(), nil)

	w.drainOnce(context.Background())

	assert.Zero(t, queue.markedCount)
	assert.Empty(t, queue.acked)
}

func TestStart_RecoversOrphansBeforeDraining(t *testing.T) {
	queue := &fakeQueue{orphans: 2}
	w := NewCommentWorker(queue, &fakeRepo{}, Config{PollInterval: time.Hour, BatchSize: 10, MaxAttempts: 3}, nil)

	w.Start(context.Background())
	w.Stop()

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Equal(t, 1, queue.orphanedCalls)
}

func TestNewCommentWorker_AppliesDefaults(t *testing.T) {
	w := NewCommentWorker(&fakeQueue{}, &fakeRepo{}, Config{}, nil)

	assert.Equal(t, DefaultConfig().PollInterval, w.config.PollInterval)
	assert.Equal(t, DefaultConfig().BatchSize, w.config.BatchSize)
	assert.Equal(t, DefaultConfig().MaxAttempts, w.config.MaxAttempts)
}
