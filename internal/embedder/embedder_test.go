package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("func main() {}")
	h2 := ComputeHash("func main() {}")
	h3 := ComputeHash("func main() {} ")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex-encoded sha256
}

func TestCache(t *testing.T) {
	c := NewCache(4)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	vec := []float32{1, 2, 3}
	c.Set("k", vec)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, vec, got)
	assert.Equal(t, 1, c.Size())

	// Mutating the returned slice must not touch the cached value.
	got[0] = 99
	again, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestNewCacheNonPositiveSize(t *testing.T) {
	c := NewCache(0)
	c.Set("k", []float32{1})
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestLocalProviderDeterministic(t *testing.T) {
	e, err := NewLocalProvider(64, nil)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	ctx := context.Background()
	v1, err := e.Embed(ctx, "package main")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "package main")
	require.NoError(t, err)
	v3, err := e.Embed(ctx, "package other")
	require.NoError(t, err)

	assert.Len(t, v1, 64)
	assert.Equal(t, v1, v2)
	assert.NotEqual(t, v1, v3)

	for i, x := range v1 {
		assert.GreaterOrEqual(t, x, float32(-1.0), "component %d", i)
		assert.LessOrEqual(t, x, float32(1.0), "component %d", i)
	}
}

func TestLocalProviderDefaults(t *testing.T) {
	e, err := NewLocalProvider(0, nil)
	require.NoError(t, err)

	assert.Equal(t, LocalDimension, e.Dimension())
	assert.Equal(t, ProviderLocal, e.Provider())
	assert.NotEmpty(t, e.Model())
}

func TestLocalProviderEmptyText(t *testing.T) {
	e, err := NewLocalProvider(8, nil)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProviderUsesCache(t *testing.T) {
	cache := NewCache(16)
	e, err := NewLocalProvider(8, cache)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	_, err = e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "cohere"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewLocalViaFactory(t *testing.T) {
	e, err := New(Config{Provider: ProviderLocal, Dimension: 16})
	require.NoError(t, err)
	assert.Equal(t, 16, e.Dimension())
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "explicit provider wins",
			env:      map[string]string{EnvProvider: "JINA", EnvOpenAIAPIKey: "sk-x"},
			expected: ProviderJina,
		},
		{
			name:     "openai key",
			env:      map[string]string{EnvOpenAIAPIKey: "sk-x"},
			expected: ProviderOpenAI,
		},
		{
			name:     "jina key",
			env:      map[string]string{EnvJinaAPIKey: "jina-x"},
			expected: ProviderJina,
		},
		{
			name:     "nothing set falls back to local",
			env:      map[string]string{},
			expected: ProviderLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvProvider, "")
			t.Setenv(EnvOpenAIAPIKey, "")
			t.Setenv(EnvJinaAPIKey, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, DetectProvider())
		})
	}
}

func TestProviderConstructorsRequireKeys(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvJinaAPIKey, "")

	_, err := NewOpenAIProvider("", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = NewJinaProvider("", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}
