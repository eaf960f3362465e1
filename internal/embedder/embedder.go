package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
)

// Embedder turns text into a fixed-length embedding vector. Implementations
// are deterministic and pure: the same text always yields the same vector,
// and the dimension is fixed for the lifetime of the instance.
//
// Provider failures surface as errors wrapping ErrProviderFailed and are
// fatal to the enclosing operation; there is no fallback embedding.
type Embedder interface {
	// Embed generates the embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed embedding dimension for this provider.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// ComputeHash computes the SHA-256 hash of text. The hash is the cache key:
// exact string equality, no normalization.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
