package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/pkg/types"
)

// Retriever ranks a passage corpus against natural-language queries using
// the projected similarity. Corpus sizes in scope are small, so scoring is a
// brute-force pass over every passage; no index is built.
type Retriever struct {
	embedder embedder.Embedder
}

// New creates a Retriever on top of an embedder. The embedder's cache makes
// repeated corpus scans cheap.
func New(emb embedder.Embedder) *Retriever {
	return &Retriever{embedder: emb}
}

// Retrieve ranks every passage in the corpus against the query, descending
// by score. Ties keep the original corpus order (stable sort). A nil matrix
// means identity, i.e. plain baseline ranking. An empty corpus returns an
// empty result rather than an error.
//
// The query is embedded and projected exactly once; each passage then costs
// one cached embedding lookup and one dot product.
func (r *Retriever) Retrieve(ctx context.Context, query string, corpus []string, m *projection.Matrix) ([]types.ScoredPassage, error) {
	if len(corpus) == 0 {
		return []types.ScoredPassage{}, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if m == nil {
		m = projection.Identity(len(queryVec))
	}
	projected, err := projection.ProjectQuery(queryVec, m)
	if err != nil {
		return nil, err
	}

	results := make([]types.ScoredPassage, 0, len(corpus))
	for _, passage := range corpus {
		vec, err := r.embedder.Embed(ctx, passage)
		if err != nil {
			return nil, fmt.Errorf("embed passage: %w", err)
		}
		if len(vec) != m.Dim() {
			return nil, fmt.Errorf("%w: passage dim %d, matrix dim %d",
				projection.ErrDimensionMismatch, len(vec), m.Dim())
		}
		results = append(results, types.ScoredPassage{
			Passage: passage,
			Score:   projection.DotProjected(projected, vec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Strategy adapts the retriever over a fixed corpus and matrix into a
// per-query retrieval function, the shape the evaluator consumes.
func (r *Retriever) Strategy(corpus []string, m *projection.Matrix) func(ctx context.Context, query string) ([]types.ScoredPassage, error) {
	return func(ctx context.Context, query string) ([]types.ScoredPassage, error) {
		return r.Retrieve(ctx, query, corpus, m)
	}
}
