// Package jobs contains implementations of scheduled jobs for ClipArena.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/cliparena/clip-arena-hub/internal/domain/vote"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RankingRebuilder is the slice of the leaderboard store the rebuild needs.
type RankingRebuilder interface {
	BatchSetScores(ctx context.Context, set string, entries []ranking.Entry)
}

// RebuildLeaderboardJob re-derives clip ranking sets from the durable store.
// Clip sets drift when best-effort projection writes are lost during store
// hiccups; a periodic rebuild converges them back to the durable truth.
//
// Voter and creator sets are increment-based and have no durable aggregate to
// rebuild from, so they are left alone.
type RebuildLeaderboardJob struct {
	votes    vote.Repository
	rankings RankingRebuilder
	logger   *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// TopN is how many clips per slot are re-ranked. Clips below the cutoff
	// converge on the next vote or fallback read.
	TopN int

	// Timeout is the maximum duration for one rebuild run.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		TopN:    500,
		Timeout: 5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	SlotsProcessed int
	ClipsRanked    int
	Errors         []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(votes vote.Repository, rankings RankingRebuilder, config RebuildLeaderboardConfig, logger *slog.Logger) *RebuildLeaderboardJob {
	if config.TopN <= 0 {
		config.TopN = DefaultRebuildLeaderboardConfig().TopN
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		votes:    votes,
		rankings: rankings,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Re-derives clip ranking sets from durable vote totals"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	slots, err := j.votes.ActiveSlots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active slots: %w", err)
	}

	for _, slot := range slots {
		ranked, err := j.rebuildSlot(ctx, slot)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to rebuild slot ranking",
				"season_id", slot.SeasonID,
				"slot", slot.SlotPosition,
				"error", err,
			)
			continue
		}
		stats.SlotsProcessed++
		stats.ClipsRanked += ranked
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"slots", stats.SlotsProcessed,
		"clips_ranked", stats.ClipsRanked,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// rebuildSlot reads one slot's durable top clips and overwrites its ranking set.
func (j *RebuildLeaderboardJob) rebuildSlot(ctx context.Context, slot vote.SlotRef) (int, error) {
	clips, _, err := j.votes.TopClips(ctx, slot.SeasonID, slot.SlotPosition, j.config.TopN, 0)
	if err != nil {
		return 0, err
	}
	if len(clips) == 0 {
		return 0, nil
	}

	entries := make([]ranking.Entry, 0, len(clips))
	for _, c := range clips {
		entries = append(entries, ranking.Entry{Member: c.ClipID, Score: c.WeightedScore})
	}

	j.rankings.BatchSetScores(ctx, ranking.ClipSet(slot.SeasonID, slot.SlotPosition), entries)
	return len(entries), nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
