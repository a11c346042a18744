package postgres

import (
	"context"
	"fmt"

	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOTE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// VoteRepository implements vote.Repository on PostgreSQL. It is the
// authoritative side of the write path: votes and clip totals commit here
// before any ranking or cache projection is touched.
type VoteRepository struct {
	conn *Connection
}

// NewVoteRepository creates a VoteRepository.
func NewVoteRepository(conn *Connection) *VoteRepository {
	return &VoteRepository{conn: conn}
}

// compile-time interface check
var _ vote.Repository = (*VoteRepository)(nil)

// RecordVote inserts the vote row and bumps the clip's durable totals in one
// transaction, returning the totals after the vote.
func (r *VoteRepository) RecordVote(ctx context.Context, v vote.Vote) (vote.Totals, error) {
	if err := v.Validate(); err != nil {
		return vote.Totals{}, err
	}

	var totals vote.Totals
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO votes (id, clip_id, voter_key, creator_id, season_id, slot_position, weight, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, v.ClipID, v.VoterKey, v.CreatorID, v.SeasonID, v.SlotPosition, v.Weight, v.CastAt)
		if err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}

		return tx.QueryRow(ctx, `
			INSERT INTO clip_totals (clip_id, season_id, slot_position, vote_count, weighted_score, updated_at)
			VALUES ($1, $2, $3, 1, $4, now())
			ON CONFLICT (clip_id) DO UPDATE SET
				vote_count     = clip_totals.vote_count + 1,
				weighted_score = clip_totals.weighted_score + EXCLUDED.weighted_score,
				updated_at     = now()
			RETURNING vote_count, weighted_score`,
			v.ClipID, v.SeasonID, v.SlotPosition, v.Weight,
		).Scan(&totals.VoteCount, &totals.WeightedScore)
	})
	if err != nil {
		return vote.Totals{}, err
	}

	return totals, nil
}

// GetTotals returns durable totals for the given clips; clips with no votes
// come back with zero totals.
func (r *VoteRepository) GetTotals(ctx context.Context, clipIDs []string) (map[string]vote.Totals, error) {
	result := make(map[string]vote.Totals, len(clipIDs))
	if len(clipIDs) == 0 {
		return result, nil
	}

	for _, id := range clipIDs {
		result[id] = vote.Totals{}
	}

	rows, err := r.conn.Query(ctx, `
		SELECT clip_id, vote_count, weighted_score
		FROM clip_totals
		WHERE clip_id = ANY($1)`, clipIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: get totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var clipID string
		var t vote.Totals
		if err := rows.Scan(&clipID, &t.VoteCount, &t.WeightedScore); err != nil {
			return nil, fmt.Errorf("postgres: scan totals: %w", err)
		}
		result[clipID] = t
	}

	return result, rows.Err()
}

// TopClips returns one page of clips for a season slot ordered by weighted
// score descending, plus the slot's clip count. This is the durable fallback
// behind the ranking sets.
func (r *VoteRepository) TopClips(ctx context.Context, seasonID string, slotPosition int, limit, offset int) ([]vote.ClipScore, int64, error) {
	var total int64
	err := r.conn.QueryRow(ctx, `
		SELECT count(*) FROM clip_totals
		WHERE season_id = $1 AND slot_position = $2`,
		seasonID, slotPosition).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: count slot clips: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT clip_id, weighted_score
		FROM clip_totals
		WHERE season_id = $1 AND slot_position = $2
		ORDER BY weighted_score DESC, clip_id
		LIMIT $3 OFFSET $4`,
		seasonID, slotPosition, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: top clips: %w", err)
	}
	defer rows.Close()

	clips := make([]vote.ClipScore, 0, limit)
	for rows.Next() {
		var cs vote.ClipScore
		if err := rows.Scan(&cs.ClipID, &cs.WeightedScore); err != nil {
			return nil, 0, fmt.Errorf("postgres: scan top clip: %w", err)
		}
		clips = append(clips, cs)
	}

	return clips, total, rows.Err()
}

// ActiveSlots lists every season slot with at least one recorded vote.
func (r *VoteRepository) ActiveSlots(ctx context.Context) ([]vote.SlotRef, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT season_id, slot_position
		FROM clip_totals
		ORDER BY season_id, slot_position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: active slots: %w", err)
	}
	defer rows.Close()

	var slots []vote.SlotRef
	for rows.Next() {
		var s vote.SlotRef
		if err := rows.Scan(&s.SeasonID, &s.SlotPosition); err != nil {
			return nil, fmt.Errorf("postgres: scan slot: %w", err)
		}
		slots = append(slots, s)
	}

	return slots, rows.Err()
}
