package query

import (
	"context"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE HEALTH QUERY
// ══════════════════════════════════════════════════════════════════════════════

// QueueHealthHandler exposes the comment queue's operational snapshot to
// health endpoints and dashboards.
type QueueHealthHandler struct {
	queue comment.Queue
}

// NewQueueHealthHandler creates a QueueHealthHandler.
func NewQueueHealthHandler(queue comment.Queue) *QueueHealthHandler {
	return &QueueHealthHandler{queue: queue}
}

// Handle returns current queue depths and the worker liveness watermark.
// Degrades to an all-zero snapshot when the store is unreachable.
func (h *QueueHealthHandler) Handle(ctx context.Context) comment.QueueHealth {
	return h.queue.Health(ctx)
}
