// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/cliparena/clip-arena-hub/pkg/timeutil"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// CAST VOTE COMMAND
// The write path for votes: the durable store commits first (fail-closed),
// then ranking sets and the vote-count cache are updated best-effort. A
// ranking or cache failure never fails the vote.
// ══════════════════════════════════════════════════════════════════════════════

// RankingWriter is the slice of the leaderboard store the write path needs.
// Both methods are fail-open by contract: they log and swallow store errors.
type RankingWriter interface {
	// SetScore overwrites a member's score (absolute-set semantics).
	SetScore(ctx context.Context, set, member string, score float64)

	// IncrScore adds to a member's score (increment semantics).
	IncrScore(ctx context.Context, set, member string, delta float64)
}

// CountInvalidator invalidates cached vote counts ahead of their TTL.
type CountInvalidator interface {
	Invalidate(ctx context.Context, clipID string)
}

// CastVoteCommand contains the data to cast one vote.
type CastVoteCommand struct {
	// ClipID is the clip being voted on.
	ClipID string

	// VoterKey identifies the voter (credited on voter leaderboards).
	VoterKey string

	// CreatorID is the clip creator (credited on creator leaderboards).
	CreatorID string

	// SeasonID and SlotPosition locate the clip's ranking set.
	SeasonID     string
	SlotPosition int

	// Weight is the vote's contribution to the weighted score.
	Weight float64
}

// CastVoteResult is returned after a successful vote.
type CastVoteResult struct {
	// VoteID is the persisted vote's ID.
	VoteID string

	// Totals is the clip's durable totals after this vote.
	Totals vote.Totals
}

// CastVoteHandler handles CastVoteCommand.
type CastVoteHandler struct {
	votes    vote.Repository
	rankings RankingWriter
	counts   CountInvalidator
	logger   *slog.Logger
}

// NewCastVoteHandler creates a CastVoteHandler.
func NewCastVoteHandler(votes vote.Repository, rankings RankingWriter, counts CountInvalidator, logger *slog.Logger) *CastVoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CastVoteHandler{
		votes:    votes,
		rankings: rankings,
		counts:   counts,
		logger:   logger,
	}
}

// Handle persists the vote, then projects it onto the fast layer.
//
// Projection order matters for freshness, not correctness: the clip score is
// an absolute overwrite of the durable weighted score, while voter/creator
// contributions are commutative increments, so concurrent votes interleave
// safely at per-member granularity.
func (h *CastVoteHandler) Handle(ctx context.Context, cmd CastVoteCommand) (*CastVoteResult, error) {
	now := time.Now().UTC()

	v := vote.Vote{
		ID:           uuid.NewString(),
		ClipID:       cmd.ClipID,
		VoterKey:     cmd.VoterKey,
		CreatorID:    cmd.CreatorID,
		SeasonID:     cmd.SeasonID,
		SlotPosition: cmd.SlotPosition,
		Weight:       cmd.Weight,
		CastAt:       now,
	}

	totals, err := h.votes.RecordVote(ctx, v)
	if err != nil {
		return nil, err
	}

	// Best-effort projections. Each call swallows its own store errors.
	clipSet := ranking.ClipSet(cmd.SeasonID, cmd.SlotPosition)
	h.rankings.SetScore(ctx, clipSet, cmd.ClipID, totals.WeightedScore)

	h.rankings.IncrScore(ctx, ranking.VoterAllTimeSet(), cmd.VoterKey, cmd.Weight)
	h.rankings.IncrScore(ctx, ranking.VoterDailySet(timeutil.DayKey(now)), cmd.VoterKey, cmd.Weight)

	if cmd.CreatorID != "" {
		h.rankings.IncrScore(ctx, ranking.CreatorSeasonSet(cmd.SeasonID), cmd.CreatorID, cmd.Weight)
		h.rankings.IncrScore(ctx, ranking.CreatorAllTimeSet(), cmd.CreatorID, cmd.Weight)
	}

	// Shorten the cache staleness window for the clip just voted on.
	h.counts.Invalidate(ctx, cmd.ClipID)

	return &CastVoteResult{
		VoteID: v.ID,
		Totals: totals,
	}, nil
}
