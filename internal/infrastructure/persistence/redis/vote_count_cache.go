package redis

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOTE COUNT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// VoteCountCache is the cache-aside layer for hot vote-count reads. Each clip
// has two independent cells: "vc:{id}" (count) and "ws:{id}" (weighted score),
// both with a 15-second TTL. The cache is strictly advisory: the durable store
// is authoritative, and a missing count cell means "not cached" even if the
// score cell survives.
//
// All methods are fail-soft. A store error surfaces as nil / no-op, never as
// an error to the caller; the caller falls through to the durable store.
type VoteCountCache struct {
	client *Client
	logger *slog.Logger
}

// NewVoteCountCache creates a VoteCountCache.
func NewVoteCountCache(client *Client, logger *slog.Logger) *VoteCountCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteCountCache{
		client: client,
		logger: logger,
	}
}

// GetMany reads cached totals for the given clips in one pipelined round
// trip. The result contains only clips whose count cell was present; a cache
// miss on the count cell omits the clip entirely, and the caller is expected
// to read the durable store for it. A missing score cell defaults to 0.
//
// Empty input short-circuits to nil without a round trip. Any store error
// returns nil for the whole batch.
func (c *VoteCountCache) GetMany(ctx context.Context, clipIDs []string) map[string]vote.Totals {
	if len(clipIDs) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	countCmds := make([]*redis.StringCmd, len(clipIDs))
	scoreCmds := make([]*redis.StringCmd, len(clipIDs))
	for i, id := range clipIDs {
		countCmds[i] = pipe.Get(ctx, VoteCountKey(id))
		scoreCmds[i] = pipe.Get(ctx, WeightedScoreKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("vote count cache read failed", "ids", len(clipIDs), "error", err)
		return nil
	}

	result := make(map[string]vote.Totals, len(clipIDs))
	for i, id := range clipIDs {
		countRaw, err := countCmds[i].Result()
		if err != nil {
			continue // absent count cell = not cached
		}
		count, err := strconv.Atoi(countRaw)
		if err != nil {
			c.logger.Warn("vote count cell malformed", "clip_id", id, "value", countRaw)
			continue
		}

		var score float64
		if scoreRaw, err := scoreCmds[i].Result(); err == nil {
			if parsed, err := strconv.ParseFloat(scoreRaw, 64); err == nil {
				score = parsed
			}
		}

		result[id] = vote.Totals{VoteCount: count, WeightedScore: score}
	}

	return result
}

// SetMany caches totals for multiple clips in one pipelined round trip, two
// SETs per clip, each with the 15-second TTL. Empty input is a no-op with no
// round trip. Errors are logged, not returned.
func (c *VoteCountCache) SetMany(ctx context.Context, totals map[string]vote.Totals) {
	if len(totals) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for id, t := range totals {
		if id == "" {
			continue
		}
		pipe.Set(ctx, VoteCountKey(id), strconv.Itoa(t.VoteCount), TTLVoteCountCache)
		pipe.Set(ctx, WeightedScoreKey(id), strconv.FormatFloat(t.WeightedScore, 'f', -1, 64), TTLVoteCountCache)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("vote count cache write failed", "ids", len(totals), "error", err)
	}
}

// UpdateOne caches totals for a single clip; same write shape as SetMany.
func (c *VoteCountCache) UpdateOne(ctx context.Context, clipID string, t vote.Totals) {
	if clipID == "" {
		return
	}
	c.SetMany(ctx, map[string]vote.Totals{clipID: t})
}

// Invalidate deletes both cells for a clip in one call, shortening the
// staleness window when a vote lands ahead of the natural TTL expiry.
// Idempotent: invalidating an absent clip leaves the same end state.
func (c *VoteCountCache) Invalidate(ctx context.Context, clipID string) {
	if clipID == "" {
		return
	}

	if err := c.client.Redis().Del(ctx, VoteCountKey(clipID), WeightedScoreKey(clipID)).Err(); err != nil {
		c.logger.Warn("vote count cache invalidate failed", "clip_id", clipID, "error", err)
	}
}
