// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"log/slog"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/cliparena/clip-arena-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD QUERIES
// Reads prefer the ranking sets; when a set read fails the clip queries fall
// back to the durable store and rebuild the set as a side effect. Voter
// rankings have no durable aggregate, so unavailability there degrades to an
// empty page instead.
// ══════════════════════════════════════════════════════════════════════════════

// RankingReader is the slice of the leaderboard store the read path needs.
// Reads return nil for "leaderboard unavailable"; every method is fail-open.
type RankingReader interface {
	GetTop(ctx context.Context, set string, limit, offset int64) *ranking.Page
	GetRank(ctx context.Context, set, member string) *int64
	GetTopVoters(ctx context.Context, tf ranking.Timeframe, limit, offset int64) *ranking.Page
	BatchSetScores(ctx context.Context, set string, entries []ranking.Entry)
}

// GetClipLeaderboardQuery pages one season slot's clip ranking.
type GetClipLeaderboardQuery struct {
	SeasonID     string
	SlotPosition int
	Limit        int
	Offset       int
}

// GetVoterLeaderboardQuery pages a voter ranking for one timeframe.
type GetVoterLeaderboardQuery struct {
	Timeframe ranking.Timeframe
	Limit     int
	Offset    int
}

// GetClipRankQuery asks for one clip's position in its slot ranking.
type GetClipRankQuery struct {
	SeasonID     string
	SlotPosition int
	ClipID       string
}

// LeaderboardHandler handles the leaderboard queries.
//
// The durable fallback runs behind a circuit breaker: when the ranking store
// is down every leaderboard read would otherwise land on the durable store at
// once, and a tripped breaker sheds that load until the fast layer recovers.
type LeaderboardHandler struct {
	rankings RankingReader
	votes    vote.Repository
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(rankings RankingReader, votes vote.Repository, logger *slog.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardHandler{
		rankings: rankings,
		votes:    votes,
		breaker: circuitbreaker.LeaderboardFallbackBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("durable fallback breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		logger: logger,
	}
}

// ClipLeaderboard returns one page of a slot's clip ranking, highest weighted
// score first.
//
// When the ranking set is unavailable the page is served from the durable
// store instead, and the fetched window is written back into the set so the
// next read is fast again. The durable fallback is authoritative, so this
// never returns stale data, only slower data.
func (h *LeaderboardHandler) ClipLeaderboard(ctx context.Context, q GetClipLeaderboardQuery) (*ranking.Page, error) {
	limit, offset := normalizePage(q.Limit, q.Offset)

	set := ranking.ClipSet(q.SeasonID, q.SlotPosition)
	if page := h.rankings.GetTop(ctx, set, int64(limit), int64(offset)); page != nil {
		return page, nil
	}

	h.logger.Warn("clip ranking unavailable, serving from durable store",
		"season_id", q.SeasonID, "slot", q.SlotPosition)

	var (
		scores []vote.ClipScore
		total  int64
	)
	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var fbErr error
		scores, total, fbErr = h.votes.TopClips(ctx, q.SeasonID, q.SlotPosition, limit, offset)
		return fbErr
	})
	if err != nil {
		return nil, err
	}

	entries := make([]ranking.Entry, 0, len(scores))
	for _, sc := range scores {
		entries = append(entries, ranking.Entry{Member: sc.ClipID, Score: sc.WeightedScore})
	}

	// Repair the set with what we just paid to read.
	h.rankings.BatchSetScores(ctx, set, entries)

	return &ranking.Page{Entries: entries, Total: total}, nil
}

// VoterLeaderboard returns one page of a voter ranking.
//
// Voter contributions are not aggregated durably, so there is no fallback: an
// unavailable or unmaterialized timeframe yields an empty page with zero total
// rather than an error. Daily pages simply restart empty after the day rolls.
func (h *LeaderboardHandler) VoterLeaderboard(ctx context.Context, q GetVoterLeaderboardQuery) *ranking.Page {
	limit, offset := normalizePage(q.Limit, q.Offset)

	if page := h.rankings.GetTopVoters(ctx, q.Timeframe, int64(limit), int64(offset)); page != nil {
		return page
	}
	return &ranking.Page{Entries: []ranking.Entry{}, Total: 0}
}

// GetCreatorLeaderboardQuery pages a creator ranking. An empty SeasonID
// addresses the all-time ranking.
type GetCreatorLeaderboardQuery struct {
	SeasonID string
	Limit    int
	Offset   int
}

// CreatorLeaderboard returns one page of a creator ranking.
//
// Like voter rankings, creator contributions are increment-derived with no
// durable aggregate behind them, so unavailability degrades to an empty page.
func (h *LeaderboardHandler) CreatorLeaderboard(ctx context.Context, q GetCreatorLeaderboardQuery) *ranking.Page {
	limit, offset := normalizePage(q.Limit, q.Offset)

	set := ranking.CreatorAllTimeSet()
	if q.SeasonID != "" {
		set = ranking.CreatorSeasonSet(q.SeasonID)
	}

	if page := h.rankings.GetTop(ctx, set, int64(limit), int64(offset)); page != nil {
		return page
	}
	return &ranking.Page{Entries: []ranking.Entry{}, Total: 0}
}

// ClipRank returns a clip's 1-based rank within its slot, or nil when the clip
// is unranked or the ranking set is unavailable. Rank is a cosmetic detail, so
// no durable fallback is attempted.
func (h *LeaderboardHandler) ClipRank(ctx context.Context, q GetClipRankQuery) *int64 {
	return h.rankings.GetRank(ctx, ranking.ClipSet(q.SeasonID, q.SlotPosition), q.ClipID)
}

// normalizePage clamps paging parameters to sane bounds.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
