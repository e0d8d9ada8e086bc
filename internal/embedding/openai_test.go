package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_EMBED_KEY", "test-key")
	e, err := NewOpenAIEmbedder(&config.EmbeddingConfig{
		BaseURL:    srv.URL,
		APIKeyEnv:  "TEST_EMBED_KEY",
		Model:      "test-model",
		Dimensions: 3,
		CacheSize:  4,
	})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	return e
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		resp := map[string]any{"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}}}
		_ = json.NewEncoder(w).Encode(resp)
	})
	emb, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("embedding length = %d, want 3", len(emb))
	}
	// Second identical call is served from the cache.
	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("provider calls = %d, want 1 (cached)", calls)
	}
}

func TestOpenAIEmbedderProviderError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	_, err := e.Embed(context.Background(), "hello")
	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Provider != "embedding" {
		t.Errorf("provider = %q", pe.Provider)
	}
}

func TestOpenAIEmbedderMalformedResponse(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})
	_, err := e.Embed(context.Background(), "hello")
	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError for malformed data, got %v", err)
	}
}

func TestOpenAIEmbedderEmptyText(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called for empty text")
	})
	_, err := e.Embed(context.Background(), "")
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestOpenAIEmbedderEmbedBatch(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"embedding": []float32{float32(i), 1, 2}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("got %d embeddings, want 3", len(out))
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, _ := e.Embed(context.Background(), "text")
	b, _ := e.Embed(context.Background(), "text")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("mock embeddings for identical text differ")
		}
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should be present")
	}
}
