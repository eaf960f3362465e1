package pipeline

import (
	"context"
	"errors"
	"log"

	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/storage"
)

// persistentEmbedder layers the on-disk embedding cache over a provider.
// Lookup order: store, then provider; provider results are written back so a
// later run with a remote provider costs no repeated API calls.
type persistentEmbedder struct {
	inner embedder.Embedder
	store storage.Store
}

func withPersistentCache(inner embedder.Embedder, store storage.Store) embedder.Embedder {
	return &persistentEmbedder{inner: inner, store: store}
}

func (p *persistentEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	hash := embedder.ComputeHash(text)

	cached, err := p.store.GetCachedEmbedding(ctx, hash)
	if err == nil && cached.Provider == p.inner.Provider() && cached.Model == p.inner.Model() {
		return cached.Vector, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := p.store.PutCachedEmbedding(ctx, &storage.CachedEmbedding{
		Hash:     hash,
		Vector:   vec,
		Provider: p.inner.Provider(),
		Model:    p.inner.Model(),
	}); err != nil {
		// A write failure only costs a future cache hit.
		log.Printf("pipeline: failed to persist embedding: %v", err)
	}

	return vec, nil
}

func (p *persistentEmbedder) Dimension() int {
	return p.inner.Dimension()
}

func (p *persistentEmbedder) Provider() string {
	return p.inner.Provider()
}

func (p *persistentEmbedder) Model() string {
	return p.inner.Model()
}

func (p *persistentEmbedder) Close() error {
	return p.inner.Close()
}
