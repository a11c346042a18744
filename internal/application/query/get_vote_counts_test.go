package query

import (
	"context"
	"errors"
	"testing"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCountCache struct {
	cached    map[string]vote.Totals
	backfills []map[string]vote.Totals
}

func (f *fakeCountCache) GetMany(_ context.Context, clipIDs []string) map[string]vote.Totals {
	if f.cached == nil {
		return nil
	}
	hits := make(map[string]vote.Totals)
	for _, id := range clipIDs {
		if totals, ok := f.cached[id]; ok {
			hits[id] = totals
		}
	}
	return hits
}

func (f *fakeCountCache) SetMany(_ context.Context, totals map[string]vote.Totals) {
	f.backfills = append(f.backfills, totals)
}

type fakeTotalsRepo struct {
	totals    map[string]vote.Totals
	err       error
	lastAsked []string
	calls     int
}

func (f *fakeTotalsRepo) RecordVote(context.Context, vote.Vote) (vote.Totals, error) {
	return vote.Totals{}, nil
}

func (f *fakeTotalsRepo) GetTotals(_ context.Context, clipIDs []string) (map[string]vote.Totals, error) {
	f.calls++
	f.lastAsked = clipIDs
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]vote.Totals)
	for _, id := range clipIDs {
		out[id] = f.totals[id]
	}
	return out, nil
}

func (f *fakeTotalsRepo) TopClips(context.Context, string, int, int, int) ([]vote.ClipScore, int64, error) {
	return nil, 0, nil
}

func (f *fakeTotalsRepo) ActiveSlots(context.Context) ([]vote.SlotRef, error) {
	return nil, nil
}

func TestVoteCounts_AllHitsSkipDurableStore(t *testing.T) {
	cache := &fakeCountCache{cached: map[string]vote.Totals{
		"clip-a": {VoteCount: 3, WeightedScore: 3},
		"clip-b": {VoteCount: 5, WeightedScore: 8},
	}}
	repo := &fakeTotalsRepo{}
	h := NewVoteCountsHandler(cache, repo, nil)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a", "clip-b"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, repo.calls)
}

func TestVoteCounts_MissesFetchedAndBackfilled(t *testing.T) {
	cache := &fakeCountCache{cached: map[string]vote.Totals{
		"clip-a": {VoteCount: 3, WeightedScore: 3},
	}}
	repo := &fakeTotalsRepo{totals: map[string]vote.Totals{
		"clip-b": {VoteCount: 9, WeightedScore: 11},
	}}
	h := NewVoteCountsHandler(cache, repo, nil)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a", "clip-b"}})
	require.NoError(t, err)
	assert.Equal(t, vote.Totals{VoteCount: 3, WeightedScore: 3}, got["clip-a"])
	assert.Equal(t, vote.Totals{VoteCount: 9, WeightedScore: 11}, got["clip-b"])

	// Only the miss went to the durable store, and it was cached afterward.
	assert.Equal(t, []string{"clip-b"}, repo.lastAsked)
	require.Len(t, cache.backfills, 1)
	assert.Contains(t, cache.backfills[0], "clip-b")
}

func TestVoteCounts_CacheOutageDegradesToFullDurableRead(t *testing.T) {
	cache := &fakeCountCache{} // GetMany returns nil: cache unavailable
	repo := &fakeTotalsRepo{totals: map[string]vote.Totals{
		"clip-a": {VoteCount: 1, WeightedScore: 1},
	}}
	h := NewVoteCountsHandler(cache, repo, nil)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a"}})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"clip-a"}, repo.lastAsked)
}

func TestVoteCounts_NeverVotedClipHasZeroTotals(t *testing.T) {
	cache := &fakeCountCache{cached: map[string]vote.Totals{}}
	repo := &fakeTotalsRepo{}
	h := NewVoteCountsHandler(cache, repo, nil)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-unknown"}})
	require.NoError(t, err)
	assert.Equal(t, vote.Totals{}, got["clip-unknown"])
}

func TestVoteCounts_DurableErrorPropagates(t *testing.T) {
	cache := &fakeCountCache{cached: map[string]vote.Totals{}}
	repo := &fakeTotalsRepo{err: errors.New("database down")}
	h := NewVoteCountsHandler(cache, repo, nil)

	_, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a"}})
	assert.Error(t, err)
}

func TestVoteCounts_EmptyInput(t *testing.T) {
	h := NewVoteCountsHandler(&fakeCountCache{}, &fakeTotalsRepo{}, nil)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
