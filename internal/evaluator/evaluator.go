// Package evaluator measures ranking quality with Average Precision and Mean
// Average Precision, independent of how the ranking was produced.
package evaluator

import (
	"context"
	"fmt"

	"github.com/querylens/querylens/pkg/types"
)

// Strategy is any per-query retrieval function: the evaluator scores baseline
// and projected retrieval through the same interface.
type Strategy func(ctx context.Context, query string) ([]types.ScoredPassage, error)

// AveragePrecision computes AP for a single ranked result list against the
// ground-truth relevant set.
//
// Walking the ranking 1-indexed, each position holding a relevant passage
// adds (relevant seen so far / position); the sum is divided by the size of
// the relevant set. An empty relevant set yields 0. The result is always in
// [0, 1], and is exactly 1 when every relevant passage precedes every
// irrelevant one.
func AveragePrecision(relevant []string, ranked []types.ScoredPassage) float64 {
	set := make(map[string]struct{}, len(relevant))
	for _, r := range relevant {
		set[r] = struct{}{}
	}
	if len(set) == 0 {
		return 0
	}

	var (
		seen int
		sum  float64
	)
	for pos, r := range ranked {
		if _, ok := set[r.Passage]; ok {
			seen++
			sum += float64(seen) / float64(pos+1)
		}
	}

	return sum / float64(len(set))
}

// MeanAveragePrecision runs the strategy once per example query and averages
// the per-example AP scores. An empty dataset scores 0 without error; a
// strategy failure aborts the evaluation.
func MeanAveragePrecision(ctx context.Context, ds *types.Dataset, strategy Strategy) (float64, error) {
	if len(ds.Examples) == 0 {
		return 0, nil
	}

	var (
		sum     float64
		queries int
	)
	for i, ex := range ds.Examples {
		if ex.Query == "" {
			continue
		}
		ranked, err := strategy(ctx, ex.Query)
		if err != nil {
			return 0, fmt.Errorf("retrieval for example %d: %w", i, err)
		}
		sum += AveragePrecision(ex.RelevantSet(), ranked)
		queries++
	}

	if queries == 0 {
		return 0, nil
	}
	return sum / float64(queries), nil
}
