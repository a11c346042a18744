// Package timeutil provides the UTC day-window helpers used by daily
// leaderboard keys. Daily windows in ClipArena roll over at midnight UTC
// regardless of where voters are, so a "day" is always the UTC calendar day.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// DayKeyLayout is the ISO date layout used in daily ranking keys.
const DayKeyLayout = "2006-01-02"

// DayKey returns the ISO date (YYYY-MM-DD) of t's UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// Today returns the ISO date of the current UTC day.
func Today() string {
	return DayKey(time.Now())
}

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextRollover returns the next daily-window boundary after t.
func NextRollover(t time.Time) time.Time {
	return StartOfDay(t).Add(24 * time.Hour)
}

// IsSameDay reports whether a and b fall on the same UTC calendar day.
func IsSameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}
