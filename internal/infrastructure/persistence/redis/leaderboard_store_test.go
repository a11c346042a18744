package redis

import (
	"context"
	"testing"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaderboardStore(t *testing.T) (*LeaderboardStore, *Client) {
	t.Helper()
	client, _ := newTestClient(t)
	return NewLeaderboardStore(client, nil), client
}

func TestLeaderboardStore_SetScoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.ClipSet("s1", 3)

	store.SetScore(ctx, set, "clip-a", 10)
	store.SetScore(ctx, set, "clip-a", 4) // absolute, not cumulative

	page := store.GetTop(ctx, set, 10, 0)
	require.NotNil(t, page)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, 4.0, page.Entries[0].Score)
}

func TestLeaderboardStore_IncrScoreAccumulates(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.VoterAllTimeSet()

	store.IncrScore(ctx, set, "voter-1", 1)
	store.IncrScore(ctx, set, "voter-1", 2.5)

	page := store.GetTop(ctx, set, 10, 0)
	require.NotNil(t, page)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, 3.5, page.Entries[0].Score)
}

func TestLeaderboardStore_BatchThenReadBack(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.ClipSet("s1", 1)

	store.BatchSetScores(ctx, set, []ranking.Entry{
		{Member: "c1", Score: 100},
		{Member: "c2", Score: 50},
	})

	page := store.GetTop(ctx, set, 10, 0)
	require.NotNil(t, page)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "c1", page.Entries[0].Member)
	assert.Equal(t, 100.0, page.Entries[0].Score)
	assert.Equal(t, "c2", page.Entries[1].Member)
	assert.Equal(t, int64(2), page.Total)
}

func TestLeaderboardStore_GetTopPaging(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.ClipSet("s1", 1)

	store.BatchSetScores(ctx, set, []ranking.Entry{
		{Member: "c1", Score: 30},
		{Member: "c2", Score: 20},
		{Member: "c3", Score: 10},
	})

	page := store.GetTop(ctx, set, 1, 1)
	require.NotNil(t, page)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "c2", page.Entries[0].Member)
	assert.Equal(t, int64(3), page.Total)
}

func TestLeaderboardStore_GetTopEmptySet(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)

	page := store.GetTop(ctx, ranking.ClipSet("s1", 9), 10, 0)
	require.NotNil(t, page)
	assert.Empty(t, page.Entries)
	assert.Equal(t, int64(0), page.Total)
}

func TestLeaderboardStore_GetRankIsOneBased(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.ClipSet("s1", 1)

	store.SetScore(ctx, set, "c1", 100)
	store.SetScore(ctx, set, "c2", 50)

	rank := store.GetRank(ctx, set, "c2")
	require.NotNil(t, rank)
	assert.Equal(t, int64(2), *rank)

	assert.Nil(t, store.GetRank(ctx, set, "unknown"))
}

func TestLeaderboardStore_DailySetGetsRollingTTL(t *testing.T) {
	ctx := context.Background()
	store, client := newLeaderboardStore(t)
	set := ranking.VoterDailySet("2026-08-29")

	store.IncrScore(ctx, set, "voter-1", 1)

	ttl, err := client.Redis().TTL(ctx, set).Result()
	require.NoError(t, err)
	assert.Equal(t, TTLDailyLeaderboard, ttl)

	// All-time sets must never expire.
	store.IncrScore(ctx, ranking.VoterAllTimeSet(), "voter-1", 1)
	ttl, err = client.Redis().TTL(ctx, ranking.VoterAllTimeSet()).Result()
	require.NoError(t, err)
	assert.Negative(t, ttl)
}

func TestLeaderboardStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)
	set := ranking.ClipSet("s1", 1)

	store.SetScore(ctx, set, "c1", 1)
	store.Clear(ctx, set)

	page := store.GetTop(ctx, set, 10, 0)
	require.NotNil(t, page)
	assert.Empty(t, page.Entries)
}

func TestLeaderboardStore_GetTopVotersTimeframes(t *testing.T) {
	ctx := context.Background()
	store, _ := newLeaderboardStore(t)

	store.IncrScore(ctx, ranking.VoterAllTimeSet(), "voter-1", 5)

	page := store.GetTopVoters(ctx, ranking.TimeframeAll, 10, 0)
	require.NotNil(t, page)
	require.Len(t, page.Entries, 1)

	// No weekly aggregate exists; unmaterialized timeframes yield nil.
	assert.Nil(t, store.GetTopVoters(ctx, ranking.Timeframe("week"), 10, 0))
}

func TestNormalizeRangeReply_FlatEncoding(t *testing.T) {
	entries, err := normalizeRangeReply([]any{"a", "2", "b", "1.5"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ranking.Entry{Member: "a", Score: 2}, entries[0])
	assert.Equal(t, ranking.Entry{Member: "b", Score: 1.5}, entries[1])
}

func TestNormalizeRangeReply_PairedEncoding(t *testing.T) {
	entries, err := normalizeRangeReply([]any{
		[]any{"a", "2"},
		[]any{"b", int64(1)},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ranking.Entry{Member: "a", Score: 2}, entries[0])
	assert.Equal(t, ranking.Entry{Member: "b", Score: 1}, entries[1])
}

func TestNormalizeRangeReply_ZSliceEncoding(t *testing.T) {
	entries, err := normalizeRangeReply([]goredis.Z{{Member: "a", Score: 3}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ranking.Entry{Member: "a", Score: 3}, entries[0])
}

func TestNormalizeRangeReply_Malformed(t *testing.T) {
	_, err := normalizeRangeReply([]any{"a", "2", "dangling"})
	assert.Error(t, err)

	_, err = normalizeRangeReply("nonsense")
	assert.Error(t, err)
}
