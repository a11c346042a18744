package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// Migrator applies schema migrations in version order.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a Migrator with the built-in migration set.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: Migrations(),
	}
}

// EnsureMigrationTable creates the migration bookkeeping table if absent.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("%w: ensure migration table: %v", ErrMigrationFailed, err)
	}
	return nil
}

// AppliedVersions returns the versions already applied.
func (m *Migrator) AppliedVersions(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: read applied versions: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("%w: scan applied version: %v", ErrMigrationFailed, err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Description, err)
		}
	}

	return nil
}

// Migrations returns the ClipArena core schema, in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "votes and per-clip totals",
			Up: `
				CREATE TABLE IF NOT EXISTS votes (
					id             UUID PRIMARY KEY,
					clip_id        TEXT NOT NULL,
					voter_key      TEXT NOT NULL,
					creator_id     TEXT NOT NULL,
					season_id      TEXT NOT NULL,
					slot_position  INTEGER NOT NULL,
					weight         DOUBLE PRECISION NOT NULL,
					cast_at        TIMESTAMPTZ NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_votes_clip ON votes (clip_id);
				CREATE INDEX IF NOT EXISTS idx_votes_slot ON votes (season_id, slot_position);

				CREATE TABLE IF NOT EXISTS clip_totals (
					clip_id         TEXT PRIMARY KEY,
					season_id       TEXT NOT NULL,
					slot_position   INTEGER NOT NULL,
					vote_count      INTEGER NOT NULL DEFAULT 0,
					weighted_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
					updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
				);
				CREATE INDEX IF NOT EXISTS idx_clip_totals_slot
					ON clip_totals (season_id, slot_position, weighted_score DESC);`,
			Down: `DROP TABLE IF EXISTS clip_totals; DROP TABLE IF EXISTS votes;`,
		},
		{
			Version:     2,
			Description: "comments and applied-event ledger",
			Up: `
				CREATE TABLE IF NOT EXISTS comments (
					id          TEXT PRIMARY KEY,
					clip_id     TEXT NOT NULL,
					actor_key   TEXT NOT NULL,
					body        TEXT NOT NULL DEFAULT '',
					flagged     BOOLEAN NOT NULL DEFAULT FALSE,
					deleted     BOOLEAN NOT NULL DEFAULT FALSE,
					created_at  TIMESTAMPTZ NOT NULL,
					updated_at  TIMESTAMPTZ NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_comments_clip ON comments (clip_id);

				-- At-least-once delivery: remember which events were applied
				-- so redeliveries are no-ops.
				CREATE TABLE IF NOT EXISTS comment_events_applied (
					event_id    UUID PRIMARY KEY,
					applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
				);`,
			Down: `DROP TABLE IF EXISTS comment_events_applied; DROP TABLE IF EXISTS comments;`,
		},
	}
}
