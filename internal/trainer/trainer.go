package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/pkg/types"
)

// Common errors
var (
	ErrDiverged = errors.New("training diverged")
	ErrNoPairs  = errors.New("no training pairs")
)

// DivergedError reports a non-finite loss or matrix entry during training.
// Training aborts at the offending epoch; LastLoss is the last finite
// validation loss observed before the divergence.
type DivergedError struct {
	Epoch    int
	LastLoss float64
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("training diverged at epoch %d (last finite validation loss %.6f)", e.Epoch, e.LastLoss)
}

func (e *DivergedError) Unwrap() error {
	return ErrDiverged
}

// Config controls the optimization loop.
type Config struct {
	LearningRate float64
	Epochs       int

	// Adam moment decay rates and stabilizer.
	Beta1   float64
	Beta2   float64
	Epsilon float64

	// LogEvery logs train/validation loss every N epochs; 0 disables.
	LogEvery int
}

// DefaultConfig returns training defaults suitable for the in-scope dataset
// sizes.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.01,
		Epochs:       100,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Result is what a completed training run produces: the learned matrix and
// one stats record per epoch, owned by the caller.
type Result struct {
	Matrix *projection.Matrix
	Epochs []types.EpochStats
}

// Trainer fits a projection matrix to labeled pairs by full-batch gradient
// descent with an Adam step.
type Trainer struct {
	embedder embedder.Embedder
	cfg      Config
}

// New creates a Trainer. Zero-valued config fields fall back to defaults.
func New(emb embedder.Embedder, cfg Config) *Trainer {
	def := DefaultConfig()
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.Beta1 <= 0 {
		cfg.Beta1 = def.Beta1
	}
	if cfg.Beta2 <= 0 {
		cfg.Beta2 = def.Beta2
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	return &Trainer{embedder: emb, cfg: cfg}
}

// embeddedPair caches a pair's embeddings so each epoch costs no provider
// lookups.
type embeddedPair struct {
	query   []float32
	passage []float32
	label   float64
}

// Train runs the configured number of epochs over the training pairs and
// returns the learned matrix with per-epoch loss statistics.
//
// Each epoch accumulates the gradient contribution of every training pair
// into a single gradient matrix, then applies exactly one Adam step. The
// accumulator is reset between epochs, never between pairs. Validation pairs
// are scored with the just-updated matrix and never contribute gradient.
//
// initial seeds the matrix; nil starts from the identity, which makes the
// first epoch's scoring equal to the baseline similarity.
func (t *Trainer) Train(ctx context.Context, train, val []types.TrainingPair, initial *projection.Matrix) (*Result, error) {
	if len(train) == 0 {
		return nil, ErrNoPairs
	}

	trainEmb, err := t.embedPairs(ctx, train)
	if err != nil {
		return nil, err
	}
	valEmb, err := t.embedPairs(ctx, val)
	if err != nil {
		return nil, err
	}

	dim := len(trainEmb[0].query)
	matrix := initial
	if matrix == nil {
		matrix = projection.Identity(dim)
	} else if matrix.Dim() != dim {
		return nil, fmt.Errorf("%w: matrix dim %d, embedding dim %d",
			projection.ErrDimensionMismatch, matrix.Dim(), dim)
	}

	var (
		weights = matrix.Weights()
		grad    = make([]float64, dim*dim)
		moment1 = make([]float64, dim*dim)
		moment2 = make([]float64, dim*dim)
		epochs  = make([]types.EpochStats, 0, t.cfg.Epochs)

		lastFinite = math.NaN()
		step       = 0
	)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Full-batch accumulation: zero once per epoch, sum every pair,
		// then a single parameter update.
		for i := range grad {
			grad[i] = 0
		}

		var trainLoss float64
		for _, p := range trainEmb {
			z := bilinear(p.query, weights, p.passage, dim)
			trainLoss += bceWithLogits(z, p.label)

			g := sigmoid(z) - p.label
			for i := 0; i < dim; i++ {
				gq := g * float64(p.query[i])
				row := grad[i*dim : (i+1)*dim]
				for j := 0; j < dim; j++ {
					row[j] += gq * float64(p.passage[j])
				}
			}
		}
		trainLoss /= float64(len(trainEmb))

		step++
		t.adamStep(weights, grad, moment1, moment2, step)

		valLoss := trainLoss
		if len(valEmb) > 0 {
			valLoss = 0
			for _, p := range valEmb {
				z := bilinear(p.query, weights, p.passage, dim)
				valLoss += bceWithLogits(z, p.label)
			}
			valLoss /= float64(len(valEmb))
		}

		if !isFinite(trainLoss) || !isFinite(valLoss) || !matrix.IsFinite() {
			return nil, &DivergedError{Epoch: epoch, LastLoss: lastFinite}
		}
		lastFinite = valLoss

		epochs = append(epochs, types.EpochStats{Epoch: epoch, TrainLoss: trainLoss, ValLoss: valLoss})
		if t.cfg.LogEvery > 0 && epoch%t.cfg.LogEvery == 0 {
			log.Printf("trainer: epoch %d train_loss=%.6f val_loss=%.6f", epoch, trainLoss, valLoss)
		}
	}

	return &Result{Matrix: matrix, Epochs: epochs}, nil
}

// embedPairs resolves embeddings for every pair up front, in pair order, so
// gradient accumulation runs without suspension points.
func (t *Trainer) embedPairs(ctx context.Context, pairs []types.TrainingPair) ([]embeddedPair, error) {
	out := make([]embeddedPair, len(pairs))
	for i, p := range pairs {
		q, err := t.embedder.Embed(ctx, p.Query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		c, err := t.embedder.Embed(ctx, p.Passage)
		if err != nil {
			return nil, fmt.Errorf("embed passage: %w", err)
		}
		if len(q) != len(c) {
			return nil, fmt.Errorf("%w: query dim %d, passage dim %d",
				projection.ErrDimensionMismatch, len(q), len(c))
		}
		out[i] = embeddedPair{query: q, passage: c, label: p.Label}
	}
	return out, nil
}

// adamStep applies one Adam update to the weights from the accumulated
// gradient.
func (t *Trainer) adamStep(weights, grad, moment1, moment2 []float64, step int) {
	var (
		b1 = t.cfg.Beta1
		b2 = t.cfg.Beta2

		correction1 = 1 - math.Pow(b1, float64(step))
		correction2 = 1 - math.Pow(b2, float64(step))
	)
	for i, g := range grad {
		moment1[i] = b1*moment1[i] + (1-b1)*g
		moment2[i] = b2*moment2[i] + (1-b2)*g*g

		mHat := moment1[i] / correction1
		vHat := moment2[i] / correction2
		weights[i] -= t.cfg.LearningRate * mHat / (math.Sqrt(vHat) + t.cfg.Epsilon)
	}
}

// bilinear computes qᵀ·W·p with W given as a row-major dim×dim slice.
func bilinear(q []float32, weights []float64, p []float32, dim int) float64 {
	var z float64
	for i := 0; i < dim; i++ {
		qi := float64(q[i])
		if qi == 0 {
			continue
		}
		row := weights[i*dim : (i+1)*dim]
		var rowDot float64
		for j := 0; j < dim; j++ {
			rowDot += row[j] * float64(p[j])
		}
		z += qi * rowDot
	}
	return z
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
