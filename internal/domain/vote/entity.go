// Package vote contains the voting domain model: votes cast on clips and the
// per-clip totals the durable store is authoritative for.
package vote

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Vote is one vote cast by a user on a clip within a season slot.
type Vote struct {
	// ID uniquely identifies the vote.
	ID string

	// ClipID is the clip being voted on.
	ClipID string

	// VoterKey identifies the voter.
	VoterKey string

	// CreatorID is the clip creator, credited on creator leaderboards.
	CreatorID string

	// SeasonID and SlotPosition locate the clip's ranking set.
	SeasonID     string
	SlotPosition int

	// Weight is the vote's contribution to the weighted score (>= 1 for
	// regular votes; boosted votes carry a higher weight).
	Weight float64

	// CastAt is when the vote was cast (UTC).
	CastAt time.Time
}

// Totals is the durable aggregate for one clip. The vote-count cache holds a
// short-lived copy of this; the durable store is the source of truth.
type Totals struct {
	VoteCount     int     `json:"vote_count"`
	WeightedScore float64 `json:"weighted_score"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyClipID is returned when a vote has no clip reference.
	ErrEmptyClipID = errors.New("vote: clip ID cannot be empty")

	// ErrEmptyVoterKey is returned when a vote has no voter.
	ErrEmptyVoterKey = errors.New("vote: voter key cannot be empty")

	// ErrInvalidWeight is returned when a vote weight is not positive.
	ErrInvalidWeight = errors.New("vote: weight must be positive")
)

// Validate checks a vote before it is persisted.
func (v Vote) Validate() error {
	if v.ClipID == "" {
		return ErrEmptyClipID
	}
	if v.VoterKey == "" {
		return ErrEmptyVoterKey
	}
	if v.Weight <= 0 {
		return ErrInvalidWeight
	}
	return nil
}
