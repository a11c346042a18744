package redis

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY NAMING SCHEME
// ══════════════════════════════════════════════════════════════════════════════
//
// Key names below are a persisted-state contract shared with existing data.
// Changing any of them orphans live keys; treat them as frozen.

const (
	// keyVoteCountPrefix holds the cached vote count per entity ("vc:{id}").
	keyVoteCountPrefix = "vc:"

	// keyWeightedScorePrefix holds the cached weighted score per entity ("ws:{id}").
	keyWeightedScorePrefix = "ws:"

	// KeyCommentQueue is the pending comment-event list.
	KeyCommentQueue = "comment_queue"

	// KeyCommentProcessing is the in-flight comment-event list.
	KeyCommentProcessing = "comment_queue:processing"

	// KeyCommentDeadLetter is the capped list of events that failed processing.
	KeyCommentDeadLetter = "comment_queue:dead_letter"

	// KeyCommentLastProcessed is the worker liveness watermark.
	KeyCommentLastProcessed = "comment_queue:last_processed_at"
)

// Ranking-set keys (leaderboard:*) are built in the ranking domain package;
// see ranking.ClipSet and friends.

// VoteCountKey addresses the cached vote count cell for an entity.
func VoteCountKey(entityID string) string {
	return keyVoteCountPrefix + entityID
}

// WeightedScoreKey addresses the cached weighted score cell for an entity.
func WeightedScoreKey(entityID string) string {
	return keyWeightedScorePrefix + entityID
}

// SeenSetKey addresses the per-user deduplication set for a slot.
func SeenSetKey(userKey string, slotPosition int) string {
	return fmt.Sprintf("seen:%s:slot:%d", userKey, slotPosition)
}

// ══════════════════════════════════════════════════════════════════════════════
// TTL DISCIPLINE
// ══════════════════════════════════════════════════════════════════════════════

const (
	// TTLVoteCountCache bounds staleness of cached vote counts. Short enough
	// for a near-real-time voting UI, long enough to absorb read bursts.
	TTLVoteCountCache = 15 * time.Second

	// TTLDailyLeaderboard is the rolling TTL on daily voter sets, refreshed on
	// every write so stale daily windows self-expire.
	TTLDailyLeaderboard = 48 * time.Hour

	// TTLSeenSet expires per-slot seen sets; dedup is only needed while a slot
	// is live.
	TTLSeenSet = 24 * time.Hour

	// DeadLetterMaxLen caps the dead-letter list; oldest entries are trimmed
	// on overflow.
	DeadLetterMaxLen = 1000
)
