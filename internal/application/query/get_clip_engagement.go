package query

import (
	"context"
	"log/slog"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIP ENGAGEMENT QUERY
// ══════════════════════════════════════════════════════════════════════════════

// CommentCounter reports visible comment counts from the durable store.
type CommentCounter interface {
	CountByClip(ctx context.Context, clipIDs []string) (map[string]int, error)
}

// ClipEngagement bundles one clip's vote totals with its comment count.
type ClipEngagement struct {
	vote.Totals
	CommentCount int `json:"comment_count"`
}

// EngagementHandler composes the vote-count read path with durable comment
// counts, for surfaces that show both numbers on one card.
type EngagementHandler struct {
	counts   *VoteCountsHandler
	comments CommentCounter
	logger   *slog.Logger
}

// NewEngagementHandler creates an EngagementHandler.
func NewEngagementHandler(counts *VoteCountsHandler, comments CommentCounter, logger *slog.Logger) *EngagementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngagementHandler{
		counts:   counts,
		comments: comments,
		logger:   logger,
	}
}

// Handle returns engagement numbers for every requested clip. Vote totals are
// the authoritative part and their failure fails the query; comment counts are
// decorative and degrade to zero when the durable read fails.
func (h *EngagementHandler) Handle(ctx context.Context, q GetVoteCountsQuery) (map[string]ClipEngagement, error) {
	totals, err := h.counts.Handle(ctx, q)
	if err != nil {
		return nil, err
	}

	commentCounts, err := h.comments.CountByClip(ctx, q.ClipIDs)
	if err != nil {
		h.logger.Warn("comment counts unavailable", "clips", len(q.ClipIDs), "error", err)
		commentCounts = nil
	}

	result := make(map[string]ClipEngagement, len(q.ClipIDs))
	for _, id := range q.ClipIDs {
		result[id] = ClipEngagement{
			Totals:       totals[id],
			CommentCount: commentCounts[id],
		}
	}
	return result, nil
}
