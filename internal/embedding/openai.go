package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Identical
// texts hit the cache instead of the provider; beyond that, repeated calls
// re-compute. No retry is built in; the caller owns retry policy.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
	cache      *Cache
}

// NewOpenAIEmbedder creates an embedder from cfg. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing embedding API key in env %s", cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
		cache:      cache,
	}, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &models.ValidationError{Field: "text", Reason: "must be non-empty"}
	}
	if e.cache != nil {
		if emb, ok := e.cache.Get(text); ok {
			return emb, nil
		}
	}
	embeddings, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(text, embeddings[0])
	}
	return embeddings[0], nil
}

// EmbedBatch embeds all texts in one provider call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if t == "" {
			return nil, &models.ValidationError{Field: "text", Reason: "must be non-empty"}
		}
	}
	return e.request(ctx, texts)
}

func (e *OpenAIEmbedder) request(ctx context.Context, input []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: input, Model: e.model})
	if err != nil {
		return nil, &models.ProviderError{Provider: "embedding", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &models.ProviderError{Provider: "embedding", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &models.ProviderError{Provider: "embedding", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &models.ProviderError{
			Provider: "embedding",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(b)),
		}
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &models.ProviderError{Provider: "embedding", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Data) != len(input) {
		return nil, &models.ProviderError{
			Provider: "embedding",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(input), len(parsed.Data)),
		}
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, &models.ProviderError{Provider: "embedding", Err: fmt.Errorf("empty embedding at index %d", i)}
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
