package redis

import (
	"context"
	"log/slog"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEEN TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// SeenTracker records which clips a user has already been served within a
// slot, so the feed can avoid repeats. Sets live under
// "seen:{userKey}:slot:{n}" with a 24-hour TTL re-applied on every write.
//
// Dedup is advisory and fail-open: a store error means a possible repeat
// view, never a blocked request.
type SeenTracker struct {
	client *Client
	logger *slog.Logger
}

// NewSeenTracker creates a SeenTracker.
func NewSeenTracker(client *Client, logger *slog.Logger) *SeenTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeenTracker{
		client: client,
		logger: logger,
	}
}

// MarkSeen adds clips to the user's seen set for a slot and refreshes the
// set's TTL, in one pipelined round trip. Empty input is a no-op.
func (t *SeenTracker) MarkSeen(ctx context.Context, userKey string, slotPosition int, clipIDs ...string) {
	if userKey == "" || len(clipIDs) == 0 {
		return
	}

	members := make([]any, len(clipIDs))
	for i, id := range clipIDs {
		members[i] = id
	}

	key := SeenSetKey(userKey, slotPosition)
	pipe := t.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, TTLSeenSet)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("seen set write failed", "user", userKey, "slot", slotPosition, "error", err)
	}
}

// Seen reports whether the user was already served the clip in this slot.
// Errors degrade to false (serve it again rather than fail).
func (t *SeenTracker) Seen(ctx context.Context, userKey string, slotPosition int, clipID string) bool {
	seen, err := t.client.Redis().SIsMember(ctx, SeenSetKey(userKey, slotPosition), clipID).Result()
	if err != nil {
		t.logger.Warn("seen set read failed", "user", userKey, "slot", slotPosition, "error", err)
		return false
	}
	return seen
}

// FilterUnseen returns the subset of clipIDs the user has not been served
// yet, preserving input order. On store error the full input is returned.
func (t *SeenTracker) FilterUnseen(ctx context.Context, userKey string, slotPosition int, clipIDs []string) []string {
	if len(clipIDs) == 0 {
		return nil
	}

	flags, err := t.client.Redis().SMIsMember(ctx, SeenSetKey(userKey, slotPosition), toAnySlice(clipIDs)...).Result()
	if err != nil || len(flags) != len(clipIDs) {
		if err != nil {
			t.logger.Warn("seen set filter failed", "user", userKey, "slot", slotPosition, "error", err)
		}
		return clipIDs
	}

	unseen := make([]string, 0, len(clipIDs))
	for i, id := range clipIDs {
		if !flags[i] {
			unseen = append(unseen, id)
		}
	}
	return unseen
}

// Reset drops the user's seen set for a slot (slot transitions).
func (t *SeenTracker) Reset(ctx context.Context, userKey string, slotPosition int) {
	if err := t.client.Redis().Del(ctx, SeenSetKey(userKey, slotPosition)).Err(); err != nil {
		t.logger.Warn("seen set reset failed", "user", userKey, "slot", slotPosition, "error", err)
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
