// Package ranking contains the ClipArena ranking domain model: entries in an
// ordered ranking set, paged ranking views, and voter timeframes.
package ranking

import (
	"errors"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one member of a ranking set. Members are unique within a set;
// re-adding a member updates its score in place. Ordering is descending by
// score; tie order among equal scores is the store's and must not be relied on.
type Entry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// Page is one window of a ranking set together with the set's cardinality.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
}

// Timeframe selects which voter ranking set a query addresses.
type Timeframe string

const (
	// TimeframeAll addresses the all-time voter ranking.
	TimeframeAll Timeframe = "all"

	// TimeframeToday addresses today's daily voter ranking.
	TimeframeToday Timeframe = "today"
)

// IsMaterialized reports whether a ranking set exists for this timeframe.
// Anything other than "all" and "today" (weekly buckets, arbitrary dates) has
// no materialized set and must resolve to "leaderboard unavailable".
func (t Timeframe) IsMaterialized() bool {
	return t == TimeframeAll || t == TimeframeToday
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyMember is returned when a ranking entry has no member ID.
	ErrEmptyMember = errors.New("ranking: member cannot be empty")

	// ErrEmptySeason is returned when a clip ranking is addressed without a season.
	ErrEmptySeason = errors.New("ranking: season ID cannot be empty")
)

// Validate checks an entry before it is written to a ranking set.
func (e Entry) Validate() error {
	if e.Member == "" {
		return ErrEmptyMember
	}
	return nil
}
