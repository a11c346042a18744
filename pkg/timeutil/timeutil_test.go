package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey_AlwaysUTC(t *testing.T) {
	// 23:30 on Jan 1 in UTC-5 is already Jan 2 in UTC.
	loc := time.FixedZone("EST", -5*3600)
	local := time.Date(2026, 1, 1, 23, 30, 0, 0, loc)

	assert.Equal(t, "2026-01-02", DayKey(local))
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 15, 18, 45, 12, 999, time.UTC)

	start := StartOfDay(ts)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), start)
}

func TestNextRollover(t *testing.T) {
	ts := time.Date(2026, 3, 15, 18, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), NextRollover(ts))
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2026, 3, 15, 0, 0, 1, 0, time.UTC)
	b := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(b, c))
}
