// Package worker implements the background consumer that drains the comment
// event queue and applies events to the durable store with at-least-once
// delivery.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/cliparena/clip-arena-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT WORKER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains comment worker settings.
type Config struct {
	// PollInterval is how often the pending queue is drained.
	PollInterval time.Duration

	// BatchSize is the maximum number of events claimed per drain.
	BatchSize int

	// MaxAttempts is how many times one event is applied before it is
	// dead-lettered.
	MaxAttempts int
}

// DefaultConfig returns sensible worker defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		BatchSize:    50,
		MaxAttempts:  3,
	}
}

// CommentWorker drains the comment queue on an interval and applies each event
// to the durable store. Events that exhaust their attempts are dead-lettered;
// everything else is acknowledged individually so one poisoned event cannot
// hold a batch hostage.
//
// The worker assumes it is the queue's only drainer.
type CommentWorker struct {
	queue    comment.Queue
	comments comment.Repository
	config   Config
	retrier  *retry.Retrier
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCommentWorker creates a CommentWorker.
func NewCommentWorker(queue comment.Queue, comments comment.Repository, config Config, logger *slog.Logger) *CommentWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CommentWorker{
		queue:    queue,
		comments: comments,
		config:   config,
		retrier:  retry.EventApplyRetrier(),
		logger:   logger,
	}
}

// Start recovers events orphaned by a previous crash, then begins the drain
// loop in a background goroutine.
func (w *CommentWorker) Start(ctx context.Context) {
	if recovered := w.queue.RecoverOrphans(ctx); recovered > 0 {
		w.logger.Info("requeued events from interrupted run", "count", recovered)
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("comment worker started",
		"poll_interval", w.config.PollInterval.String(),
		"batch_size", w.config.BatchSize,
	)
}

// Stop cancels the drain loop and waits for the in-flight batch to finish.
func (w *CommentWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("comment worker stopped")
}

// run is the drain loop. One extra drain runs immediately on startup so a
// backlog does not wait a full poll interval.
func (w *CommentWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.drainOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

// drainOnce claims one batch and applies it event by event, in FIFO order.
// Every claimed event leaves the processing queue exactly one way: individual
// acknowledgement on success, or the dead-letter list on exhausted attempts.
func (w *CommentWorker) drainOnce(ctx context.Context) {
	batch := w.queue.PopBatch(ctx, w.config.BatchSize)
	if len(batch) == 0 {
		return
	}

	applied := 0
	for _, qe := range batch {
		if ctx.Err() != nil {
			// Shutdown mid-batch: remaining events stay in the processing
			// queue and are requeued by RecoverOrphans on the next start.
			return
		}

		if err := w.applyOne(ctx, qe); err == nil {
			applied++
		}
	}

	w.queue.MarkProcessed(ctx)

	w.logger.Info("comment batch processed",
		"claimed", len(batch),
		"applied", applied,
		"failed", len(batch)-applied,
	)
}

// applyOne applies a single event with retries, then settles its queue entry.
func (w *CommentWorker) applyOne(ctx context.Context, qe comment.QueuedEvent) error {
	firstFailedAt := time.Time{}
	attempts := 0

	err := w.retrier.Do(ctx, func(ctx context.Context) error {
		attempts++
		applyErr := w.comments.Apply(ctx, qe.Event)
		if applyErr != nil && firstFailedAt.IsZero() {
			firstFailedAt = time.Now().UTC()
		}
		return applyErr
	})
	if err != nil {
		w.logger.Error("comment event failed, dead-lettering",
			"event_id", qe.Event.EventID,
			"clip_id", qe.Event.ClipID,
			"action", qe.Event.Action,
			"attempts", attempts,
			"error", err,
		)
		w.queue.MoveToDeadLetter(ctx, qe.Event, err, attempts, firstFailedAt)
		return err
	}

	w.queue.AcknowledgeOne(ctx, qe.Payload)
	return nil
}
