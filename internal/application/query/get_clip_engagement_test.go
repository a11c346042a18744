package query

import (
	"context"
	"errors"
	"testing"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommentCounter struct {
	counts map[string]int
	err    error
}

func (f *fakeCommentCounter) CountByClip(_ context.Context, _ []string) (map[string]int, error) {
	return f.counts, f.err
}

func newEngagementHandler(cached map[string]vote.Totals, counter *fakeCommentCounter) *EngagementHandler {
	counts := NewVoteCountsHandler(&fakeCountCache{cached: cached}, &fakeTotalsRepo{}, nil)
	return NewEngagementHandler(counts, counter, nil)
}

func TestEngagement_MergesVotesAndComments(t *testing.T) {
	h := newEngagementHandler(
		map[string]vote.Totals{
			"clip-a": {VoteCount: 10, WeightedScore: 25},
			"clip-b": {VoteCount: 2, WeightedScore: 2},
		},
		&fakeCommentCounter{counts: map[string]int{"clip-a": 4}},
	)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a", "clip-b"}})
	require.NoError(t, err)

	assert.Equal(t, ClipEngagement{
		Totals:       vote.Totals{VoteCount: 10, WeightedScore: 25},
		CommentCount: 4,
	}, got["clip-a"])

	// No comments yet is a zero, not a missing entry.
	assert.Equal(t, ClipEngagement{
		Totals: vote.Totals{VoteCount: 2, WeightedScore: 2},
	}, got["clip-b"])
}

func TestEngagement_CommentCountFailureDegradesToZero(t *testing.T) {
	h := newEngagementHandler(
		map[string]vote.Totals{"clip-a": {VoteCount: 1, WeightedScore: 1}},
		&fakeCommentCounter{err: errors.New("database down")},
	)

	got, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a"}})
	require.NoError(t, err)
	assert.Equal(t, vote.Totals{VoteCount: 1, WeightedScore: 1}, got["clip-a"].Totals)
	assert.Zero(t, got["clip-a"].CommentCount)
}

func TestEngagement_VoteTotalsFailureFailsTheQuery(t *testing.T) {
	counts := NewVoteCountsHandler(
		&fakeCountCache{cached: map[string]vote.Totals{}},
		&fakeTotalsRepo{err: errors.New("database down")},
		nil,
	)
	h := NewEngagementHandler(counts, &fakeCommentCounter{}, nil)

	_, err := h.Handle(context.Background(), GetVoteCountsQuery{ClipIDs: []string{"clip-a"}})
	assert.Error(t, err)
}
