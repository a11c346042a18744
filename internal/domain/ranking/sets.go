package ranking

import (
	"fmt"
	"strings"
	"time"

	"github.com/cliparena/clip-arena-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING SET IDENTITY
// ══════════════════════════════════════════════════════════════════════════════
//
// Ranking sets are addressed by composite namespaced keys shared with existing
// data; the names below are a persisted-state contract and must not change.

const voterDailyPrefix = "leaderboard:voters:daily:"

// ClipSet addresses the per-slot clip ranking for a season. Clip sets use
// absolute-set score semantics.
func ClipSet(seasonID string, slotPosition int) string {
	return fmt.Sprintf("leaderboard:clips:%s:%d", seasonID, slotPosition)
}

// VoterAllTimeSet addresses the all-time voter ranking (increment semantics).
func VoterAllTimeSet() string {
	return "leaderboard:voters:all"
}

// VoterDailySet addresses the voter ranking for one UTC day (YYYY-MM-DD).
// Daily sets carry a rolling TTL and self-expire.
func VoterDailySet(day string) string {
	return voterDailyPrefix + day
}

// CreatorSeasonSet addresses the per-season creator ranking.
func CreatorSeasonSet(seasonID string) string {
	return "leaderboard:creators:" + seasonID
}

// CreatorAllTimeSet addresses the global creator ranking.
func CreatorAllTimeSet() string {
	return "leaderboard:creators:all"
}

// IsDailySet reports whether a set is daily-scoped and needs its rolling TTL
// refreshed on every write.
func IsDailySet(set string) bool {
	return strings.HasPrefix(set, voterDailyPrefix)
}

// ResolveVoterSet maps a timeframe to the voter ranking set holding it.
// The second return is false when no set is materialized for the timeframe:
// only "all" and "today" exist, there is no weekly aggregate to guess at.
func ResolveVoterSet(tf Timeframe, now time.Time) (string, bool) {
	switch tf {
	case TimeframeAll:
		return VoterAllTimeSet(), true
	case TimeframeToday:
		return VoterDailySet(timeutil.DayKey(now)), true
	default:
		return "", false
	}
}
