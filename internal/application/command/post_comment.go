package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// POST COMMENT COMMAND
// The comment write path only enqueues; a background worker applies the event
// to the durable store. Enqueue is fail-closed: if the event cannot be queued
// the caller must see the failure.
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnknownAction is returned for a comment action outside the known set.
var ErrUnknownAction = errors.New("post_comment: unknown action")

// PostCommentCommand contains the data for one comment lifecycle event.
type PostCommentCommand struct {
	// ClipID is the clip the comment belongs to.
	ClipID string

	// ActorKey identifies who performed the action.
	ActorKey string

	// Action is the lifecycle transition (created, updated, deleted, flagged).
	Action comment.Action

	// Data carries action-specific fields such as comment text.
	Data map[string]any
}

// PostCommentResult is returned after a successful enqueue.
type PostCommentResult struct {
	// EventID identifies the enqueued event for tracing.
	EventID string
}

// PostCommentHandler handles PostCommentCommand.
type PostCommentHandler struct {
	queue  comment.Queue
	logger *slog.Logger
}

// NewPostCommentHandler creates a PostCommentHandler.
func NewPostCommentHandler(queue comment.Queue, logger *slog.Logger) *PostCommentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostCommentHandler{
		queue:  queue,
		logger: logger,
	}
}

// Handle validates and enqueues a comment event. It never touches the durable
// store; application happens asynchronously with at-least-once delivery.
func (h *PostCommentHandler) Handle(ctx context.Context, cmd PostCommentCommand) (*PostCommentResult, error) {
	if !cmd.Action.IsValid() {
		return nil, ErrUnknownAction
	}

	event := comment.Event{
		EventID:   uuid.NewString(),
		ClipID:    cmd.ClipID,
		ActorKey:  cmd.ActorKey,
		Action:    cmd.Action,
		Timestamp: time.Now().UTC(),
		Data:      cmd.Data,
	}

	if err := h.queue.Push(ctx, event); err != nil {
		h.logger.Error("comment event enqueue failed", "clip_id", cmd.ClipID, "action", cmd.Action, "error", err)
		return nil, err
	}

	return &PostCommentResult{EventID: event.EventID}, nil
}
