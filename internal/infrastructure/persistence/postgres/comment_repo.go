package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnknownCommentID is returned when an event's payload has no comment ID.
var ErrUnknownCommentID = errors.New("postgres: comment event has no comment_id")

// CommentRepository implements comment.Repository on PostgreSQL. The queue
// delivers at-least-once, so Apply records every applied event ID and turns
// redeliveries into no-ops.
type CommentRepository struct {
	conn *Connection
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(conn *Connection) *CommentRepository {
	return &CommentRepository{conn: conn}
}

// compile-time interface check
var _ comment.Repository = (*CommentRepository)(nil)

// Apply persists one comment lifecycle event idempotently: the event ID is
// inserted into the applied ledger first, and a conflict there short-circuits
// the whole transaction as a successful no-op.
func (r *CommentRepository) Apply(ctx context.Context, event comment.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	commentID, _ := event.Data["comment_id"].(string)
	if commentID == "" {
		return ErrUnknownCommentID
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO comment_events_applied (event_id) VALUES ($1)
			ON CONFLICT (event_id) DO NOTHING`, event.EventID)
		if err != nil {
			return fmt.Errorf("record applied event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil // redelivery, already applied
		}

		switch event.Action {
		case comment.ActionCreated:
			body, _ := event.Data["body"].(string)
			_, err = tx.Exec(ctx, `
				INSERT INTO comments (id, clip_id, actor_key, body, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				ON CONFLICT (id) DO NOTHING`,
				commentID, event.ClipID, event.ActorKey, body, event.Timestamp)

		case comment.ActionUpdated:
			body, _ := event.Data["body"].(string)
			_, err = tx.Exec(ctx, `
				UPDATE comments SET body = $2, updated_at = $3
				WHERE id = $1 AND NOT deleted`,
				commentID, body, event.Timestamp)

		case comment.ActionDeleted:
			_, err = tx.Exec(ctx, `
				UPDATE comments SET deleted = TRUE, updated_at = $2
				WHERE id = $1`,
				commentID, event.Timestamp)

		case comment.ActionFlagged:
			_, err = tx.Exec(ctx, `
				UPDATE comments SET flagged = TRUE, updated_at = $2
				WHERE id = $1`,
				commentID, event.Timestamp)

		default:
			return comment.ErrInvalidAction
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", event.Action, err)
		}

		return nil
	})
}

// CountByClip returns the number of visible comments per clip, used when
// re-deriving projections after a rebuild.
func (r *CommentRepository) CountByClip(ctx context.Context, clipIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(clipIDs))
	if len(clipIDs) == 0 {
		return result, nil
	}

	rows, err := r.conn.Query(ctx, `
		SELECT clip_id, count(*) FROM comments
		WHERE clip_id = ANY($1) AND NOT deleted
		GROUP BY clip_id`, clipIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: count comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var clipID string
		var count int
		if err := rows.Scan(&clipID, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan comment count: %w", err)
		}
		result[clipID] = count
	}

	return result, rows.Err()
}
