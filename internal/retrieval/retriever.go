// Package retrieval runs semantic search against the vector store: it embeds
// the query and issues a nearestNeighbor YQL search, preserving store order.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vespa"
)

// SearchOptions tune one search call. Zero values fall back to the retriever's
// configured defaults.
type SearchOptions struct {
	Ranking    string
	Hits       int
	TargetHits int
	// Restrictions are exact-match field filters ANDed onto the
	// nearestNeighbor clause, e.g. {"resource_id": "abc"}.
	Restrictions map[string]string
}

// Retriever embeds queries and searches a collection by vector similarity.
type Retriever struct {
	store      vespa.Store
	embedder   embedding.Embedder
	ranking    string
	hits       int
	targetHits int
	logger     *zap.Logger
}

// NewRetriever creates a retriever with default ranking profile and hit counts.
func NewRetriever(store vespa.Store, embedder embedding.Embedder, ranking string, hits, targetHits int, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		ranking:    ranking,
		hits:       hits,
		targetHits: targetHits,
		logger:     logger,
	}
}

// SemanticSearch embeds query and returns the closest records in collection,
// in the order the store ranked them. An empty query is a validation error.
func (r *Retriever) SemanticSearch(ctx context.Context, collection, query string, opts SearchOptions) ([]models.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	ranking := opts.Ranking
	if ranking == "" {
		ranking = r.ranking
	}
	hits := opts.Hits
	if hits <= 0 {
		hits = r.hits
	}
	targetHits := opts.TargetHits
	if targetHits <= 0 {
		targetHits = r.targetHits
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	records, err := r.store.Query(ctx, vespa.QueryBody{
		YQL:            buildYQL(collection, targetHits, opts.Restrictions),
		Hits:           hits,
		Ranking:        ranking,
		QueryEmbedding: queryEmbedding,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("semantic search",
		zap.String("collection", collection),
		zap.Int("hits", len(records)))
	return records, nil
}

// buildYQL assembles the nearestNeighbor select. Restrictions are appended in
// sorted key order so the statement is deterministic.
func buildYQL(collection string, targetHits int, restrictions map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "select * from %s where ({targetHits: %d}nearestNeighbor(embedding, query_embedding))",
		collection, targetHits)

	keys := make([]string, 0, len(restrictions))
	for k := range restrictions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " and %s contains '%s'", k, escapeYQLValue(restrictions[k]))
	}
	return b.String()
}

// escapeYQLValue escapes quotes and backslashes in a contains literal.
func escapeYQLValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
