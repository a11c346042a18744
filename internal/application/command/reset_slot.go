package command

import (
	"context"
	"log/slog"

	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET SLOT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RankingCleaner deletes a ranking set outright.
type RankingCleaner interface {
	Clear(ctx context.Context, set string)
}

// ResetSlotCommand retires one season slot's ranking state.
type ResetSlotCommand struct {
	SeasonID     string
	SlotPosition int
}

// ResetSlotHandler clears a retired slot's clip ranking set. Voter and creator
// sets are untouched: they accumulate across slots, and daily sets expire on
// their own.
type ResetSlotHandler struct {
	rankings RankingCleaner
	logger   *slog.Logger
}

// NewResetSlotHandler creates a ResetSlotHandler.
func NewResetSlotHandler(rankings RankingCleaner, logger *slog.Logger) *ResetSlotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetSlotHandler{
		rankings: rankings,
		logger:   logger,
	}
}

// Handle clears the slot's clip ranking set. Clearing is fail-open: a
// leftover set is rebuilt or overwritten by the next season's writes.
func (h *ResetSlotHandler) Handle(ctx context.Context, cmd ResetSlotCommand) {
	set := ranking.ClipSet(cmd.SeasonID, cmd.SlotPosition)
	h.rankings.Clear(ctx, set)
	h.logger.Info("slot ranking cleared", "season_id", cmd.SeasonID, "slot", cmd.SlotPosition)
}
