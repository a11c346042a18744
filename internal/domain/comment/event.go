// Package comment contains the comment-lifecycle domain model: the events that
// flow through the reliable queue and the contract for applying them to the
// durable store.
package comment

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Action is the kind of comment lifecycle change an event carries.
type Action string

const (
	// ActionCreated records a new comment.
	ActionCreated Action = "created"

	// ActionUpdated records an edit to an existing comment.
	ActionUpdated Action = "updated"

	// ActionDeleted records a comment removal (user or moderator initiated).
	ActionDeleted Action = "deleted"

	// ActionFlagged records a moderation flag on a comment.
	ActionFlagged Action = "flagged"
)

// IsValid checks if the action is one the worker knows how to apply.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionFlagged:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT
// ══════════════════════════════════════════════════════════════════════════════

// Event is one comment lifecycle change, serialized as an opaque payload on
// the queue. EventID is the only identity an event has; consumers must apply
// redelivered events idempotently keyed by it.
type Event struct {
	// EventID uniquely identifies this event (assigned on enqueue).
	EventID string `json:"event_id"`

	// ClipID is the clip the comment belongs to.
	ClipID string `json:"clip_id"`

	// ActorKey identifies who triggered the change (user key or "moderator").
	ActorKey string `json:"actor_key"`

	// Action is the lifecycle change being recorded.
	Action Action `json:"action"`

	// Timestamp is when the change happened (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Data carries action-specific fields (comment ID, body, flag reason).
	Data map[string]any `json:"data,omitempty"`
}

// Validation errors.
var (
	// ErrEmptyClipID is returned when an event has no clip reference.
	ErrEmptyClipID = errors.New("comment: clip ID cannot be empty")

	// ErrEmptyActorKey is returned when an event has no actor.
	ErrEmptyActorKey = errors.New("comment: actor key cannot be empty")

	// ErrInvalidAction is returned for actions the worker cannot apply.
	ErrInvalidAction = errors.New("comment: invalid action")
)

// Validate checks an event before it is enqueued.
func (e Event) Validate() error {
	if e.ClipID == "" {
		return ErrEmptyClipID
	}
	if e.ActorKey == "" {
		return ErrEmptyActorKey
	}
	if !e.Action.IsValid() {
		return ErrInvalidAction
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD-LETTER ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetter wraps an event that exhausted its processing attempts, with
// enough metadata to diagnose and optionally replay the failure.
type DeadLetter struct {
	Event         Event     `json:"event"`
	Error         string    `json:"error"`
	Attempts      int       `json:"attempts"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LastFailedAt  time.Time `json:"last_failed_at"`
}
