package storage

import (
	"context"
	"errors"
	"time"

	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/pkg/types"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Run records one complete train-and-evaluate cycle: its configuration and
// the baseline vs projected MAP it produced.
type Run struct {
	ID           string
	DatasetPath  string
	Provider     string
	Model        string
	Dimension    int
	LearningRate float64
	Epochs       int
	Seed         int64
	BaselineMAP  float64
	ProjectedMAP float64
	CreatedAt    time.Time
}

// CachedEmbedding is a persisted embedding vector keyed by content hash.
type CachedEmbedding struct {
	Hash      string
	Vector    []float32
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Store persists training artifacts: run history, per-epoch loss curves,
// learned projection matrices, and an on-disk embedding cache that survives
// process restarts.
type Store interface {
	// Run operations
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Epoch statistics
	SaveEpochStats(ctx context.Context, runID string, stats []types.EpochStats) error
	ListEpochStats(ctx context.Context, runID string) ([]types.EpochStats, error)

	// Learned matrices
	SaveMatrix(ctx context.Context, runID string, m *projection.Matrix) error
	GetMatrix(ctx context.Context, runID string) (*projection.Matrix, error)
	LatestMatrix(ctx context.Context) (*projection.Matrix, string, error)

	// Embedding cache
	GetCachedEmbedding(ctx context.Context, hash string) (*CachedEmbedding, error)
	PutCachedEmbedding(ctx context.Context, emb *CachedEmbedding) error

	Close() error
}
