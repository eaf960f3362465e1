package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Training runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    dataset_path TEXT NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    learning_rate REAL NOT NULL,
    epochs INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    baseline_map REAL NOT NULL,
    projected_map REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Per-epoch loss curves
CREATE TABLE IF NOT EXISTS epoch_stats (
    run_id TEXT NOT NULL,
    epoch INTEGER NOT NULL,
    train_loss REAL NOT NULL,
    val_loss REAL NOT NULL,
    PRIMARY KEY (run_id, epoch),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Learned projection matrices, one per run
CREATE TABLE IF NOT EXISTS matrices (
    run_id TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    weights BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- On-disk embedding cache (content hash -> vector)
CREATE TABLE IF NOT EXISTS embedding_cache (
    hash TEXT PRIMARY KEY,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_embedding_cache_provider ON embedding_cache(provider, model);
`

const migrationV1Down = `
DROP TABLE IF EXISTS embedding_cache;
DROP TABLE IF EXISTS matrices;
DROP TABLE IF EXISTS epoch_stats;
DROP TABLE IF EXISTS runs;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	currentVersion := 0
	switch {
	case err == sql.ErrNoRows:
		// No schema yet, start from version 0.
	case err != nil:
		return fmt.Errorf("failed to check schema_version table: %w", err)
	default:
		err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		}
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		currentVersion = migration.Version
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion int
	err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", currentVersion, err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", currentVersion, err)
	}

	return nil
}
