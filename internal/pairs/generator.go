package pairs

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/querylens/querylens/pkg/types"
)

// Common errors
var (
	ErrEmptyRelevantSet = errors.New("example has no relevant passages")
	ErrInvalidFraction  = errors.New("train fraction must be in (0, 1]")
)

// Config controls pair generation. All randomness flows from Seed, so a fixed
// seed reproduces the exact same pairs, shuffle, and split.
type Config struct {
	// Seed drives negative sampling and the shuffle.
	Seed int64

	// TrainFraction is the fraction of pairs used for training; the rest is
	// the validation subset. Must be in (0, 1].
	TrainFraction float64

	// NegativesPerPositive is how many cross-example negatives are sampled
	// for each positive pair. The default of one keeps classes balanced.
	NegativesPerPositive int
}

// DefaultConfig returns the pair generation defaults.
func DefaultConfig() Config {
	return Config{
		Seed:                 42,
		TrainFraction:        0.8,
		NegativesPerPositive: 1,
	}
}

// Stats reports what pair generation produced and skipped.
type Stats struct {
	Positives       int
	Negatives       int
	SkippedExamples int
}

// Split holds the shuffled training and validation subsets.
type Split struct {
	Train []types.TrainingPair
	Val   []types.TrainingPair
	Stats Stats
}

// Generate converts the dataset into labeled training pairs.
//
// Each (example, passage) yields one positive pair. Negatives are sampled
// from the relevant sets of other examples: the dataset's own ground truth
// supplies the labels, so the labels stay independent of the similarity
// function being trained. Examples with no passages are logged, skipped, and
// counted; only a dataset yielding zero pairs overall is an error.
func Generate(ds *types.Dataset, cfg Config) (*Split, error) {
	if cfg.TrainFraction <= 0 || cfg.TrainFraction > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidFraction, cfg.TrainFraction)
	}
	if cfg.NegativesPerPositive < 0 {
		cfg.NegativesPerPositive = 0
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic sampling

	// Flatten all passages with their owning example index, in dataset
	// order, so negative sampling is deterministic under the seed.
	type ownedPassage struct {
		example int
		content string
	}
	var pool []ownedPassage
	for i, ex := range ds.Examples {
		for _, p := range ex.Passages {
			pool = append(pool, ownedPassage{example: i, content: p.Content})
		}
	}

	var (
		all   []types.TrainingPair
		stats Stats
	)

	for i, ex := range ds.Examples {
		if len(ex.Passages) == 0 {
			stats.SkippedExamples++
			log.Printf("pairs: skipping example %d (%q): %v", i, ex.Query, ErrEmptyRelevantSet)
			continue
		}

		foreign := len(pool) - len(ex.Passages)

		for _, p := range ex.Passages {
			all = append(all, types.TrainingPair{Query: ex.Query, Passage: p.Content, Label: 1})
			stats.Positives++

			if foreign == 0 {
				// Single-example datasets have nothing to sample from.
				continue
			}
			for n := 0; n < cfg.NegativesPerPositive; n++ {
				neg := pool[rng.Intn(len(pool))]
				for neg.example == i {
					neg = pool[rng.Intn(len(pool))]
				}
				all = append(all, types.TrainingPair{Query: ex.Query, Passage: neg.content, Label: 0})
				stats.Negatives++
			}
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("%w: all %d examples skipped", ErrEmptyRelevantSet, stats.SkippedExamples)
	}

	rng.Shuffle(len(all), func(a, b int) {
		all[a], all[b] = all[b], all[a]
	})

	cut := int(cfg.TrainFraction * float64(len(all)))
	return &Split{
		Train: all[:cut],
		Val:   all[cut:],
		Stats: stats,
	}, nil
}
