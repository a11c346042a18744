package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVoteSource struct {
	slots      []vote.SlotRef
	slotsErr   error
	bySlot     map[vote.SlotRef][]vote.ClipScore
	failSlot   *vote.SlotRef
	topNSeen   int
	offsetSeen int
}

func (f *fakeVoteSource) RecordVote(context.Context, vote.Vote) (vote.Totals, error) {
	return vote.Totals{}, nil
}

func (f *fakeVoteSource) GetTotals(context.Context, []string) (map[string]vote.Totals, error) {
	return nil, nil
}

func (f *fakeVoteSource) TopClips(_ context.Context, seasonID string, slot, limit, offset int) ([]vote.ClipScore, int64, error) {
	ref := vote.SlotRef{SeasonID: seasonID, SlotPosition: slot}
	if f.failSlot != nil && *f.failSlot == ref {
		return nil, 0, errors.New("database down")
	}
	f.topNSeen, f.offsetSeen = limit, offset
	clips := f.bySlot[ref]
	return clips, int64(len(clips)), nil
}

func (f *fakeVoteSource) ActiveSlots(context.Context) ([]vote.SlotRef, error) {
	return f.slots, f.slotsErr
}

type fakeRebuilder struct {
	written map[string][]ranking.Entry
}

func (f *fakeRebuilder) BatchSetScores(_ context.Context, set string, entries []ranking.Entry) {
	if f.written == nil {
		f.written = make(map[string][]ranking.Entry)
	}
	f.written[set] = entries
}

func TestRebuildLeaderboard_RewritesEverySlotSet(t *testing.T) {
	slotA := vote.SlotRef{SeasonID: "s1", SlotPosition: 1}
	slotB := vote.SlotRef{SeasonID: "s1", SlotPosition: 2}
	votes := &fakeVoteSource{
		slots: []vote.SlotRef{slotA, slotB},
		bySlot: map[vote.SlotRef][]vote.ClipScore{
			slotA: {{ClipID: "clip-a", WeightedScore: 100}, {ClipID: "clip-b", WeightedScore: 50}},
			slotB: {{ClipID: "clip-c", WeightedScore: 7}},
		},
	}
	rebuilder := &fakeRebuilder{}
	job := NewRebuildLeaderboardJob(votes, rebuilder, RebuildLeaderboardConfig{TopN: 500}, nil)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, rebuilder.written, 2)
	assert.Equal(t, []ranking.Entry{
		{Member: "clip-a", Score: 100},
		{Member: "clip-b", Score: 50},
	}, rebuilder.written[ranking.ClipSet("s1", 1)])
	assert.Equal(t, []ranking.Entry{
		{Member: "clip-c", Score: 7},
	}, rebuilder.written[ranking.ClipSet("s1", 2)])

	// TopN bounds the durable read, always from the top.
	assert.Equal(t, 500, votes.topNSeen)
	assert.Zero(t, votes.offsetSeen)

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.SlotsProcessed)
	assert.Equal(t, 3, stats.ClipsRanked)
	assert.Empty(t, stats.Errors)
}

func TestRebuildLeaderboard_SlotFailureDoesNotStopTheRun(t *testing.T) {
	slotBad := vote.SlotRef{SeasonID: "s1", SlotPosition: 1}
	slotGood := vote.SlotRef{SeasonID: "s1", SlotPosition: 2}
	votes := &fakeVoteSource{
		slots:    []vote.SlotRef{slotBad, slotGood},
		failSlot: &slotBad,
		bySlot: map[vote.SlotRef][]vote.ClipScore{
			slotGood: {{ClipID: "clip-c", WeightedScore: 1}},
		},
	}
	rebuilder := &fakeRebuilder{}
	job := NewRebuildLeaderboardJob(votes, rebuilder, RebuildLeaderboardConfig{}, nil)

	err := job.Run(context.Background())
	require.Error(t, err)

	// The healthy slot was still rebuilt.
	assert.Contains(t, rebuilder.written, ranking.ClipSet("s1", 2))
	assert.NotContains(t, rebuilder.written, ranking.ClipSet("s1", 1))

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.SlotsProcessed)
	assert.Len(t, stats.Errors, 1)
}

func TestRebuildLeaderboard_EmptySlotWritesNothing(t *testing.T) {
	votes := &fakeVoteSource{slots: []vote.SlotRef{{SeasonID: "s1", SlotPosition: 1}}}
	rebuilder := &fakeRebuilder{}
	job := NewRebuildLeaderboardJob(votes, rebuilder, RebuildLeaderboardConfig{}, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, rebuilder.written)
}

func TestRebuildLeaderboard_SlotListingFailureAborts(t *testing.T) {
	votes := &fakeVoteSource{slotsErr: errors.New("database down")}
	job := NewRebuildLeaderboardJob(votes, &fakeRebuilder{}, RebuildLeaderboardConfig{}, nil)

	assert.Error(t, job.Run(context.Background()))
	assert.Nil(t, job.LastRebuildStats())
}
