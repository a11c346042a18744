package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVoteCountCache(t *testing.T) (*VoteCountCache, *Client, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newTestClient(t)
	return NewVoteCountCache(client, nil), client, mr
}

func TestVoteCountCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newVoteCountCache(t)

	cache.SetMany(ctx, map[string]vote.Totals{
		"clip-a": {VoteCount: 12, WeightedScore: 34.5},
		"clip-b": {VoteCount: 1, WeightedScore: 1},
	})

	got := cache.GetMany(ctx, []string{"clip-a", "clip-b"})
	require.Len(t, got, 2)
	assert.Equal(t, vote.Totals{VoteCount: 12, WeightedScore: 34.5}, got["clip-a"])
	assert.Equal(t, vote.Totals{VoteCount: 1, WeightedScore: 1}, got["clip-b"])
}

func TestVoteCountCache_MissOmitsClip(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newVoteCountCache(t)

	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 3, WeightedScore: 3})

	got := cache.GetMany(ctx, []string{"clip-a", "clip-unknown"})
	require.Len(t, got, 1)
	_, ok := got["clip-unknown"]
	assert.False(t, ok, "uncached clip must be absent, not zero-valued")
}

func TestVoteCountCache_MissingScoreCellDefaultsToZero(t *testing.T) {
	ctx := context.Background()
	cache, client, _ := newVoteCountCache(t)

	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 7, WeightedScore: 9})
	require.NoError(t, client.Redis().Del(ctx, WeightedScoreKey("clip-a")).Err())

	got := cache.GetMany(ctx, []string{"clip-a"})
	require.Len(t, got, 1)
	assert.Equal(t, vote.Totals{VoteCount: 7, WeightedScore: 0}, got["clip-a"])
}

func TestVoteCountCache_MissingCountCellIsAMiss(t *testing.T) {
	ctx := context.Background()
	cache, client, _ := newVoteCountCache(t)

	// Score cell alone does not constitute a cached entry.
	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 7, WeightedScore: 9})
	require.NoError(t, client.Redis().Del(ctx, VoteCountKey("clip-a")).Err())

	got := cache.GetMany(ctx, []string{"clip-a"})
	assert.Empty(t, got)
}

func TestVoteCountCache_EmptyInputNoRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newVoteCountCache(t)

	assert.Nil(t, cache.GetMany(ctx, nil))
	cache.SetMany(ctx, nil) // must not panic or write
}

func TestVoteCountCache_CellsCarryTTL(t *testing.T) {
	ctx := context.Background()
	cache, client, _ := newVoteCountCache(t)

	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 1, WeightedScore: 2})

	for _, key := range []string{VoteCountKey("clip-a"), WeightedScoreKey("clip-a")} {
		ttl, err := client.Redis().TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, TTLVoteCountCache, ttl, key)
	}
}

func TestVoteCountCache_ExpiryTurnsIntoMiss(t *testing.T) {
	ctx := context.Background()
	cache, _, mr := newVoteCountCache(t)

	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 1, WeightedScore: 2})
	mr.FastForward(TTLVoteCountCache + time.Second)

	assert.Empty(t, cache.GetMany(ctx, []string{"clip-a"}))
}

func TestVoteCountCache_InvalidateRemovesBothCells(t *testing.T) {
	ctx := context.Background()
	cache, client, _ := newVoteCountCache(t)

	cache.UpdateOne(ctx, "clip-a", vote.Totals{VoteCount: 5, WeightedScore: 5})
	cache.Invalidate(ctx, "clip-a")

	exists, err := client.Redis().Exists(ctx, VoteCountKey("clip-a"), WeightedScoreKey("clip-a")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)

	// Idempotent: a second invalidate leaves the same end state.
	cache.Invalidate(ctx, "clip-a")
}
