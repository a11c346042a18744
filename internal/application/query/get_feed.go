package query

import (
	"context"
	"log/slog"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEED QUERY
// ══════════════════════════════════════════════════════════════════════════════

// SeenFilter is the slice of the seen tracker the feed read needs. Both
// methods are fail-open: on store error FilterUnseen returns its full input.
type SeenFilter interface {
	FilterUnseen(ctx context.Context, userKey string, slotPosition int, clipIDs []string) []string
	MarkSeen(ctx context.Context, userKey string, slotPosition int, clipIDs ...string)
}

// GetFeedQuery asks which of a slot's candidate clips to serve a user.
type GetFeedQuery struct {
	UserKey      string
	SlotPosition int
	CandidateIDs []string

	// Dedup applies the seen filter; callers resolve it from the
	// feed.seen_filter feature flag for this user.
	Dedup bool
}

// FeedHandler handles GetFeedQuery.
type FeedHandler struct {
	seen   SeenFilter
	logger *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(seen SeenFilter, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandler{
		seen:   seen,
		logger: logger,
	}
}

// Handle returns the candidates to serve, in input order. With dedup on, clips
// the user was already served are dropped and the survivors are marked seen so
// the next page skips them. Dedup is advisory: anonymous requests and disabled
// rollouts get the unfiltered candidates.
func (h *FeedHandler) Handle(ctx context.Context, q GetFeedQuery) []string {
	if !q.Dedup || q.UserKey == "" {
		return q.CandidateIDs
	}

	unseen := h.seen.FilterUnseen(ctx, q.UserKey, q.SlotPosition, q.CandidateIDs)
	if len(unseen) > 0 {
		h.seen.MarkSeen(ctx, q.UserKey, q.SlotPosition, unseen...)
	}
	return unseen
}
