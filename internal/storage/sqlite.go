package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the store at dbPath and applies pending
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists a completed run record.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, dataset_path, provider, model, dimension,
			learning_rate, epochs, seed, baseline_map, projected_map, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DatasetPath, run.Provider, run.Model, run.Dimension,
		run.LearningRate, run.Epochs, run.Seed, run.BaselineMAP, run.ProjectedMAP, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dataset_path, provider, model, dimension, learning_rate,
			epochs, seed, baseline_map, projected_map, created_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_path, provider, model, dimension, learning_rate,
			epochs, seed, baseline_map, projected_map, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.DatasetPath, &run.Provider, &run.Model,
		&run.Dimension, &run.LearningRate, &run.Epochs, &run.Seed,
		&run.BaselineMAP, &run.ProjectedMAP, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}

// SaveEpochStats persists the loss curve of a run in one transaction.
func (s *SQLiteStore) SaveEpochStats(ctx context.Context, runID string, stats []types.EpochStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO epoch_stats (run_id, epoch, train_loss, val_loss) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, st := range stats {
		if _, err := stmt.ExecContext(ctx, runID, st.Epoch, st.TrainLoss, st.ValLoss); err != nil {
			return fmt.Errorf("failed to save epoch %d: %w", st.Epoch, err)
		}
	}

	return tx.Commit()
}

// ListEpochStats returns a run's loss curve in epoch order.
func (s *SQLiteStore) ListEpochStats(ctx context.Context, runID string) ([]types.EpochStats, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT epoch, train_loss, val_loss FROM epoch_stats WHERE run_id = ? ORDER BY epoch", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list epoch stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []types.EpochStats
	for rows.Next() {
		var st types.EpochStats
		if err := rows.Scan(&st.Epoch, &st.TrainLoss, &st.ValLoss); err != nil {
			return nil, fmt.Errorf("failed to scan epoch stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// SaveMatrix persists a run's learned projection matrix.
func (s *SQLiteStore) SaveMatrix(ctx context.Context, runID string, m *projection.Matrix) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO matrices (run_id, dimension, weights, created_at) VALUES (?, ?, ?, ?)",
		runID, m.Dim(), m.Bytes(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save matrix: %w", err)
	}
	return nil
}

// GetMatrix retrieves the matrix learned by a run.
func (s *SQLiteStore) GetMatrix(ctx context.Context, runID string) (*projection.Matrix, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT weights FROM matrices WHERE run_id = ?", runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matrix: %w", err)
	}
	return projection.FromBytes(blob)
}

// LatestMatrix retrieves the most recently stored matrix and its run ID.
func (s *SQLiteStore) LatestMatrix(ctx context.Context) (*projection.Matrix, string, error) {
	var (
		blob  []byte
		runID string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id, weights FROM matrices ORDER BY created_at DESC LIMIT 1").Scan(&runID, &blob)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get latest matrix: %w", err)
	}
	m, err := projection.FromBytes(blob)
	if err != nil {
		return nil, "", err
	}
	return m, runID, nil
}

// GetCachedEmbedding looks up a persisted embedding by content hash.
func (s *SQLiteStore) GetCachedEmbedding(ctx context.Context, hash string) (*CachedEmbedding, error) {
	var (
		emb  CachedEmbedding
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, vector, provider, model, created_at
		FROM embedding_cache WHERE hash = ?`, hash).
		Scan(&emb.Hash, &blob, &emb.Provider, &emb.Model, &emb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached embedding: %w", err)
	}
	emb.Vector = deserializeVector(blob)
	return &emb, nil
}

// PutCachedEmbedding persists an embedding, replacing any existing entry for
// the same content hash.
func (s *SQLiteStore) PutCachedEmbedding(ctx context.Context, emb *CachedEmbedding) error {
	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO embedding_cache (hash, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		emb.Hash, serializeVector(emb.Vector), len(emb.Vector), emb.Provider, emb.Model, emb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to put cached embedding: %w", err)
	}
	return nil
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
