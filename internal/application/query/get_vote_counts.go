package query

import (
	"context"
	"log/slog"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOTE COUNT QUERY
// Cache-aside: serve hits from the count cache, fetch misses from the durable
// store, and backfill the cache so the next burst hits.
// ══════════════════════════════════════════════════════════════════════════════

// CountCache is the slice of the vote-count cache this query needs. Both
// methods are fail-open; a cache outage degrades to a full durable read.
type CountCache interface {
	// GetMany returns cached totals keyed by clip ID; absent clips are simply
	// missing from the map.
	GetMany(ctx context.Context, clipIDs []string) map[string]vote.Totals

	// SetMany caches totals for the given clips.
	SetMany(ctx context.Context, totals map[string]vote.Totals)
}

// GetVoteCountsQuery asks for current totals of a batch of clips (one feed
// page worth).
type GetVoteCountsQuery struct {
	ClipIDs []string
}

// VoteCountsHandler handles GetVoteCountsQuery.
type VoteCountsHandler struct {
	cache  CountCache
	votes  vote.Repository
	logger *slog.Logger
}

// NewVoteCountsHandler creates a VoteCountsHandler.
func NewVoteCountsHandler(cache CountCache, votes vote.Repository, logger *slog.Logger) *VoteCountsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteCountsHandler{
		cache:  cache,
		votes:  votes,
		logger: logger,
	}
}

// Handle returns totals for every requested clip. Cached totals may lag the
// durable store by up to the cache TTL; clips nobody voted on come back with
// zero totals, indistinguishable from unknown IDs by design of the read path.
func (h *VoteCountsHandler) Handle(ctx context.Context, q GetVoteCountsQuery) (map[string]vote.Totals, error) {
	if len(q.ClipIDs) == 0 {
		return map[string]vote.Totals{}, nil
	}

	result := h.cache.GetMany(ctx, q.ClipIDs)
	if result == nil {
		result = make(map[string]vote.Totals, len(q.ClipIDs))
	}

	var misses []string
	for _, id := range q.ClipIDs {
		if _, ok := result[id]; !ok {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := h.votes.GetTotals(ctx, misses)
	if err != nil {
		return nil, err
	}

	h.cache.SetMany(ctx, fetched)

	for id, totals := range fetched {
		result[id] = totals
	}
	return result, nil
}
