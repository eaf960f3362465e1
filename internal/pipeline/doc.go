// Package pipeline wires the full loop together: dataset loading, pair
// generation, projection training, and MAP evaluation of baseline vs
// projected retrieval over the same corpus.
//
// The pipeline is single-threaded end to end except for an optional
// embedding warm-up, which runs independent lookups with bounded parallelism
// before any training starts. With a Store configured, every run leaves
// behind its configuration, loss curve, learned matrix, and a persistent
// embedding cache.
package pipeline
