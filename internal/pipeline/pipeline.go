package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/querylens/querylens/internal/dataset"
	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/evaluator"
	"github.com/querylens/querylens/internal/pairs"
	"github.com/querylens/querylens/internal/retriever"
	"github.com/querylens/querylens/internal/storage"
	"github.com/querylens/querylens/internal/trainer"
	"github.com/querylens/querylens/pkg/types"
)

// Config contains everything one train-and-evaluate cycle needs.
type Config struct {
	DatasetPath string

	// Training options
	LearningRate float64
	Epochs       int

	// Pair generation options
	TrainFraction        float64
	Seed                 int64
	NegativesPerPositive int

	// WarmupWorkers bounds the concurrent embedding lookups used to populate
	// the cache before training. Zero disables the warm-up; training then
	// embeds lazily. Embedding lookups are pure, so warming in parallel
	// changes nothing but latency; gradient accumulation stays sequential.
	WarmupWorkers int

	// Embedder is required.
	Embedder embedder.Embedder

	// Store is optional; when set, the run, its loss curve, and the learned
	// matrix are persisted.
	Store storage.Store
}

// Report summarizes a completed run.
type Report struct {
	RunID        string
	Provider     string
	Model        string
	BaselineMAP  float64
	ProjectedMAP float64
	Epochs       []types.EpochStats
	PairStats    pairs.Stats
	TrainPairs   int
	ValPairs     int
	CorpusSize   int
	Duration     time.Duration
}

// Run executes the full loop: load the dataset, generate labeled pairs,
// train the projection matrix, and evaluate MAP with and without it.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder is required")
	}

	startTime := time.Now()

	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	corpus := ds.Corpus()
	log.Printf("pipeline: loaded %d examples, corpus of %d passages", len(ds.Examples), len(corpus))

	emb := cfg.Embedder
	if cfg.Store != nil {
		emb = withPersistentCache(cfg.Embedder, cfg.Store)
	}

	split, err := pairs.Generate(ds, pairs.Config{
		Seed:                 cfg.Seed,
		TrainFraction:        cfg.TrainFraction,
		NegativesPerPositive: cfg.NegativesPerPositive,
	})
	if err != nil {
		return nil, fmt.Errorf("generate pairs: %w", err)
	}
	log.Printf("pipeline: %d train / %d validation pairs (%d positives, %d negatives, %d examples skipped)",
		len(split.Train), len(split.Val), split.Stats.Positives, split.Stats.Negatives, split.Stats.SkippedExamples)

	if cfg.WarmupWorkers > 0 {
		if err := warmEmbeddings(ctx, emb, ds, corpus, cfg.WarmupWorkers); err != nil {
			return nil, fmt.Errorf("warm embedding cache: %w", err)
		}
	}

	tr := trainer.New(emb, trainer.Config{
		LearningRate: cfg.LearningRate,
		Epochs:       cfg.Epochs,
		LogEvery:     10,
	})
	result, err := tr.Train(ctx, split.Train, split.Val, nil)
	if err != nil {
		return nil, fmt.Errorf("train projection: %w", err)
	}

	r := retriever.New(emb)
	baselineMAP, err := evaluator.MeanAveragePrecision(ctx, ds, r.Strategy(corpus, nil))
	if err != nil {
		return nil, fmt.Errorf("evaluate baseline: %w", err)
	}
	projectedMAP, err := evaluator.MeanAveragePrecision(ctx, ds, r.Strategy(corpus, result.Matrix))
	if err != nil {
		return nil, fmt.Errorf("evaluate projection: %w", err)
	}
	log.Printf("pipeline: baseline MAP %.4f, projected MAP %.4f", baselineMAP, projectedMAP)

	report := &Report{
		RunID:        uuid.NewString(),
		Provider:     cfg.Embedder.Provider(),
		Model:        cfg.Embedder.Model(),
		BaselineMAP:  baselineMAP,
		ProjectedMAP: projectedMAP,
		Epochs:       result.Epochs,
		PairStats:    split.Stats,
		TrainPairs:   len(split.Train),
		ValPairs:     len(split.Val),
		CorpusSize:   len(corpus),
		Duration:     time.Since(startTime),
	}

	if cfg.Store != nil {
		if err := persistRun(ctx, cfg, report, result); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}

	return report, nil
}

// warmEmbeddings populates the embedding cache for every query and passage
// with bounded parallelism. Lookups are independent and pure; the cache is
// sized to hold everything, so completion order has no observable effect.
func warmEmbeddings(ctx context.Context, emb embedder.Embedder, ds *types.Dataset, corpus []string, workers int) error {
	texts := make([]string, 0, len(ds.Examples)+len(corpus))
	for _, ex := range ds.Examples {
		texts = append(texts, ex.Query)
	}
	texts = append(texts, corpus...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, text := range texts {
		if text == "" {
			continue
		}
		g.Go(func() error {
			_, err := emb.Embed(gctx, text)
			return err
		})
	}
	return g.Wait()
}

// persistRun writes the run record, loss curve, and learned matrix.
func persistRun(ctx context.Context, cfg Config, report *Report, result *trainer.Result) error {
	run := &storage.Run{
		ID:           report.RunID,
		DatasetPath:  cfg.DatasetPath,
		Provider:     report.Provider,
		Model:        report.Model,
		Dimension:    result.Matrix.Dim(),
		LearningRate: cfg.LearningRate,
		Epochs:       len(report.Epochs),
		Seed:         cfg.Seed,
		BaselineMAP:  report.BaselineMAP,
		ProjectedMAP: report.ProjectedMAP,
	}
	if err := cfg.Store.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := cfg.Store.SaveEpochStats(ctx, run.ID, report.Epochs); err != nil {
		return err
	}
	return cfg.Store.SaveMatrix(ctx, run.ID, result.Matrix)
}
