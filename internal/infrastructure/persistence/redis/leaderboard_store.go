package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD STORE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardStore maintains fast, approximately-consistent rankings on Redis
// sorted sets, derived from vote events and queryable by page window.
//
// Write semantics are deliberately split into two methods:
//   - SetScore overwrites a member's score (clip sets: score = current
//     weighted score, re-derived on every vote).
//   - IncrScore adds to a member's score (voter/creator sets: cumulative
//     contribution). Increments are commutative, so concurrent writers are
//     race-safe without coordination.
//
// Callers must not mix the two on the same set.
//
// Every operation here is best-effort (fail-open): a failed leaderboard update
// or read never fails the user action that triggered it. Reads return nil for
// "leaderboard unavailable"; callers fall back to the durable store.
type LeaderboardStore struct {
	client *Client
	logger *slog.Logger
}

// NewLeaderboardStore creates a LeaderboardStore.
func NewLeaderboardStore(client *Client, logger *slog.Logger) *LeaderboardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardStore{
		client: client,
		logger: logger,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SetScore overwrites a member's score in a ranking set (absolute-set
// semantics, used for clip scores). Errors are logged and swallowed.
func (s *LeaderboardStore) SetScore(ctx context.Context, set, member string, score float64) {
	if member == "" {
		return
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, set, redis.Z{Score: score, Member: member})
	s.touchDaily(ctx, pipe, set)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("leaderboard set score failed", "set", set, "member", member, "error", err)
	}
}

// IncrScore adds delta to a member's score in a ranking set (increment
// semantics, used for voter/creator scores). Errors are logged and swallowed.
func (s *LeaderboardStore) IncrScore(ctx context.Context, set, member string, delta float64) {
	if member == "" {
		return
	}

	pipe := s.client.Pipeline()
	pipe.ZIncrBy(ctx, set, delta, member)
	s.touchDaily(ctx, pipe, set)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("leaderboard incr score failed", "set", set, "member", member, "error", err)
	}
}

// BatchSetScores pipelines N absolute score writes into one round trip.
// An empty input issues no round trip at all. The pipeline is not
// transactional across members; it only minimizes round trips.
func (s *LeaderboardStore) BatchSetScores(ctx context.Context, set string, entries []ranking.Entry) {
	if len(entries) == 0 {
		return
	}

	pipe := s.client.Pipeline()
	for _, e := range entries {
		if e.Member == "" {
			continue
		}
		pipe.ZAdd(ctx, set, redis.Z{Score: e.Score, Member: e.Member})
	}
	s.touchDaily(ctx, pipe, set)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("leaderboard batch update failed", "set", set, "count", len(entries), "error", err)
	}
}

// Clear deletes a ranking set outright (slot/season transitions). Errors are
// logged and swallowed; a leftover set self-corrects on the next rebuild.
func (s *LeaderboardStore) Clear(ctx context.Context, set string) {
	if err := s.client.Redis().Del(ctx, set).Err(); err != nil {
		s.logger.Warn("leaderboard clear failed", "set", set, "error", err)
	}
}

// touchDaily re-applies the rolling TTL on daily-scoped sets inside the same
// pipeline as the write, so every write pushes the expiry window forward.
func (s *LeaderboardStore) touchDaily(ctx context.Context, pipe redis.Pipeliner, set string) {
	if ranking.IsDailySet(set) {
		pipe.Expire(ctx, set, TTLDailyLeaderboard)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTop returns one page of a ranking set, highest score first, combining a
// ranged read and a cardinality read in a single pipeline. Returns nil for
// "leaderboard unavailable" (never an empty page on error); callers must fall
// back to the durable store.
func (s *LeaderboardStore) GetTop(ctx context.Context, set string, limit, offset int64) *ranking.Page {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	pipe := s.client.Pipeline()
	rangeCmd := pipe.Do(ctx, "ZREVRANGE", set, offset, offset+limit-1, "WITHSCORES")
	cardCmd := pipe.ZCard(ctx, set)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("leaderboard read failed", "set", set, "error", err)
		return nil
	}

	raw, err := rangeCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("leaderboard range read failed", "set", set, "error", err)
		return nil
	}

	entries, err := normalizeRangeReply(raw)
	if err != nil {
		s.logger.Warn("leaderboard reply malformed", "set", set, "error", err)
		return nil
	}

	return &ranking.Page{
		Entries: entries,
		Total:   cardCmd.Val(),
	}
}

// GetRank returns a member's 1-based rank (highest score = rank 1), or nil if
// the member is absent or the store errored.
func (s *LeaderboardStore) GetRank(ctx context.Context, set, member string) *int64 {
	rank, err := s.client.Redis().ZRevRank(ctx, set, member).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leaderboard rank read failed", "set", set, "member", member, "error", err)
		}
		return nil
	}

	rank++ // store ranks are 0-based
	return &rank
}

// GetTopVoters resolves a voter timeframe to its ranking set and reads one
// page. Timeframes with no materialized set ("week" and friends) return nil
// rather than guessing; there is no weekly aggregate.
func (s *LeaderboardStore) GetTopVoters(ctx context.Context, tf ranking.Timeframe, limit, offset int64) *ranking.Page {
	set, ok := ranking.ResolveVoterSet(tf, time.Now())
	if !ok {
		return nil
	}
	return s.GetTop(ctx, set, limit, offset)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT NORMALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// normalizeRangeReply converts a ranged read reply into entries. The wire
// format differs across client/protocol versions: RESP2 returns a flattened
// alternating [member, score, member, score, ...] array, RESP3 returns
// [member, score] pairs, and typed commands return redis.Z slices. Scores
// arrive as strings, floats, or ints depending on the path.
func normalizeRangeReply(raw any) ([]ranking.Entry, error) {
	switch v := raw.(type) {
	case nil:
		return []ranking.Entry{}, nil

	case []redis.Z:
		entries := make([]ranking.Entry, 0, len(v))
		for _, z := range v {
			member, ok := z.Member.(string)
			if !ok {
				member = fmt.Sprint(z.Member)
			}
			entries = append(entries, ranking.Entry{Member: member, Score: z.Score})
		}
		return entries, nil

	case []any:
		if len(v) == 0 {
			return []ranking.Entry{}, nil
		}
		if _, paired := v[0].([]any); paired {
			return normalizePairs(v)
		}
		return normalizeFlat(v)

	default:
		return nil, fmt.Errorf("unexpected range reply type %T", raw)
	}
}

// normalizePairs decodes the paired encoding: [[member, score], ...].
func normalizePairs(raw []any) ([]ranking.Entry, error) {
	entries := make([]ranking.Entry, 0, len(raw))
	for _, item := range raw {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("malformed pair entry %v", item)
		}
		score, err := parseScore(pair[1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, ranking.Entry{
			Member: fmt.Sprint(pair[0]),
			Score:  score,
		})
	}
	return entries, nil
}

// normalizeFlat decodes the flattened encoding: [member, score, member, ...].
func normalizeFlat(raw []any) ([]ranking.Entry, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("flattened reply has odd length %d", len(raw))
	}

	entries := make([]ranking.Entry, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		score, err := parseScore(raw[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, ranking.Entry{
			Member: fmt.Sprint(raw[i]),
			Score:  score,
		})
	}
	return entries, nil
}

// parseScore accepts the score encodings seen across store client versions.
func parseScore(v any) (float64, error) {
	switch s := v.(type) {
	case float64:
		return s, nil
	case int64:
		return float64(s), nil
	case string:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable score %q: %w", s, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected score type %T", v)
	}
}
