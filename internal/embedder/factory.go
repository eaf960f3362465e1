package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedder configuration.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
	Dimension int // local provider only
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cfg.Dimension, cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. QUERYLENS_EMBEDDING_PROVIDER (openai, jina, local)
//  2. Available API keys: OPENAI_API_KEY, then JINA_API_KEY
//  3. The local provider if nothing else is configured
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return New(Config{Provider: provider})
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return New(Config{Provider: ProviderOpenAI})
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return New(Config{Provider: ProviderJina})
	}

	return New(Config{Provider: ProviderLocal})
}

// DetectProvider returns the provider NewFromEnv would pick with the current
// environment.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	return ProviderLocal
}
