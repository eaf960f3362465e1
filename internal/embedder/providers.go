package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider names and defaults
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"

	OpenAIDimension = 1536
	JinaDimension   = 1024
	LocalDimension  = 384

	jinaEndpoint = "https://api.jina.ai/v1/embeddings"
)

// Environment variables recognized by the factory
const (
	EnvProvider     = "QUERYLENS_EMBEDDING_PROVIDER"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

// OpenAIProvider implements Embedder using the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	cache  *Cache
}

// NewOpenAIProvider creates an OpenAI embedder. An empty apiKey falls back to
// the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  DefaultOpenAIModel,
		cache:  cache,
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if vec, ok := o.cache.Get(hash); ok {
			return vec, nil
		}
	}

	config := DefaultRetryConfig()
	vec, err := retryWithBackoff(ctx, config, func() ([]float32, error) {
		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(o.model),
			Input: []string{text},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("no embedding data returned")
		}
		out := make([]float32, len(resp.Data[0].Embedding))
		copy(out, resp.Data[0].Embedding)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxRetries, err)
	}

	if o.cache != nil {
		o.cache.Set(hash, vec)
	}
	return vec, nil
}

func (o *OpenAIProvider) Dimension() int {
	return OpenAIDimension
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Close() error {
	return nil
}

// JinaProvider implements Embedder using the Jina AI embeddings API.
type JinaProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewJinaProvider creates a Jina AI embedder. An empty apiKey falls back to
// the JINA_API_KEY environment variable.
func NewJinaProvider(apiKey string, cache *Cache) (*JinaProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvJinaAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvJinaAPIKey)
	}
	return &JinaProvider{
		apiKey: apiKey,
		model:  DefaultJinaModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (j *JinaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if j.cache != nil {
		if vec, ok := j.cache.Get(hash); ok {
			return vec, nil
		}
	}

	config := DefaultRetryConfig()
	vec, err := retryWithBackoff(ctx, config, func() ([]float32, error) {
		return j.callAPI(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxRetries, err)
	}

	if j.cache != nil {
		j.cache.Set(hash, vec)
	}
	return vec, nil
}

func (j *JinaProvider) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": []string{text},
		"model": j.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jinaEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	return apiResp.Data[0].Embedding, nil
}

func (j *JinaProvider) Dimension() int {
	return JinaDimension
}

func (j *JinaProvider) Provider() string {
	return ProviderJina
}

func (j *JinaProvider) Model() string {
	return j.model
}

func (j *JinaProvider) Close() error {
	j.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider generates deterministic embeddings derived from the text's
// content hash. It needs no network or API key, which makes it the offline
// and test provider. The vectors carry no semantic signal.
type LocalProvider struct {
	dim   int
	model string
	cache *Cache
}

// NewLocalProvider creates a local embedder. A non-positive dim uses
// LocalDimension.
func NewLocalProvider(dim int, cache *Cache) (*LocalProvider, error) {
	if dim <= 0 {
		dim = LocalDimension
	}
	return &LocalProvider{
		dim:   dim,
		model: "local-hash-v1",
		cache: cache,
	}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if vec, ok := l.cache.Get(hash); ok {
			return vec, nil
		}
	}

	// Expand the content hash into dim components by rehashing with a
	// counter. Deterministic for a given text.
	vec := make([]float32, l.dim)
	var block [32]byte
	for i := 0; i < l.dim; i++ {
		if i%32 == 0 {
			block = sha256.Sum256([]byte(fmt.Sprintf("%s:%d", text, i/32)))
		}
		vec[i] = float32(block[i%32])/127.5 - 1.0
	}

	if l.cache != nil {
		l.cache.Set(hash, vec)
	}
	return vec, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dim
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
