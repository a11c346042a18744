package vote

import "context"

// Repository is the durable-store contract for votes. Implementations live in
// the infrastructure layer (PostgreSQL).
type Repository interface {
	// RecordVote persists a vote and updates the clip's durable totals in one
	// transaction. This is the synchronous, fail-closed half of the write
	// path; ranking and cache updates happen after it, fire-and-forget.
	RecordVote(ctx context.Context, v Vote) (Totals, error)

	// GetTotals returns durable totals for the given clips. Clips with no
	// votes are returned with zero totals. Used as the fallback when the
	// vote-count cache misses or is unavailable.
	GetTotals(ctx context.Context, clipIDs []string) (map[string]Totals, error)

	// TopClips returns clip IDs with weighted scores for a season slot,
	// ordered by score descending. Used to serve and rebuild leaderboards
	// when the ranking sets are unavailable.
	TopClips(ctx context.Context, seasonID string, slotPosition int, limit, offset int) ([]ClipScore, int64, error)

	// ActiveSlots lists every (season, slot) pair that has recorded votes.
	// Used by the periodic leaderboard rebuild to enumerate ranking sets.
	ActiveSlots(ctx context.Context) ([]SlotRef, error)
}

// SlotRef identifies one season slot.
type SlotRef struct {
	SeasonID     string
	SlotPosition int
}

// ClipScore pairs a clip with its durable weighted score.
type ClipScore struct {
	ClipID        string
	WeightedScore float64
}
