// Package integration exercises the full ingest-retrieve-answer flow against
// an in-memory store that ranks by cosine similarity, standing in for Vespa.
package integration

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/manifest"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/vespa"
)

// rankingStore keeps records in memory and answers nearestNeighbor queries by
// cosine similarity over the stored embedding field.
type rankingStore struct {
	mu   sync.Mutex
	data map[string]map[string]models.Record
}

func newRankingStore() *rankingStore {
	return &rankingStore{data: map[string]map[string]models.Record{}}
}

func (s *rankingStore) InsertOne(ctx context.Context, collection string, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = map[string]models.Record{}
	}
	s.data[collection][rec.ID] = rec
	return nil
}

func (s *rankingStore) InsertMany(ctx context.Context, collection string, recs []models.Record) error {
	for _, rec := range recs {
		if err := s.InsertOne(ctx, collection, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *rankingStore) Query(ctx context.Context, body vespa.QueryBody) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var collection string
	for _, c := range []string{models.CollectionResources, models.CollectionChunks} {
		if strings.Contains(body.YQL, " from "+c+" ") {
			collection = c
		}
	}
	records := make([]models.Record, 0, len(s.data[collection]))
	for _, rec := range s.data[collection] {
		records = append(records, rec)
	}
	if body.QueryEmbedding != nil {
		sort.Slice(records, func(i, j int) bool {
			return cosine(body.QueryEmbedding, recordEmbedding(records[i])) >
				cosine(body.QueryEmbedding, recordEmbedding(records[j]))
		})
	}
	if body.Hits > 0 && len(records) > body.Hits {
		records = records[:body.Hits]
	}
	return records, nil
}

func (s *rankingStore) DeleteMany(ctx context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.data[collection], id)
	}
	return nil
}

func recordEmbedding(rec models.Record) []float32 {
	emb, _ := rec.Fields[models.FieldEmbedding].([]float32)
	return emb
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestIngestRetrieveAnswerFlow(t *testing.T) {
	ctx := context.Background()
	store := newRankingStore()
	embedder := embedding.NewMockEmbedder(16)
	defer embedder.Close()

	m, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	pipeline := ingest.NewPipeline(store, embedder, ingest.NewChunker(80, 10), ingest.WithManifest(m))

	docs := []string{
		"# Installation\n\nRun the install.sh script to install the software.",
		"# Configuration\n\nEdit config.yaml to change the server port.",
		"# Uninstall\n\nDelete the binary and remove the config directory.",
	}
	for _, doc := range docs {
		if _, err := pipeline.Ingest(ctx, doc, models.ResourceTypeMarkdown); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	retriever := retrieval.NewRetriever(store, embedder, "embedding_query", 50, 50, nil)
	sessions := session.NewStore()

	// Rephrase echoes the install section verbatim; its embedding then matches
	// that chunk's embedding exactly, so it must rank first. The second
	// scripted reply is the final answer.
	model := llm.NewMockModel(
		docs[0],
		"Run install.sh.",
	)
	engine := chat.NewEngine(retriever, model, sessions, 2, nil)

	answer, err := engine.Answer(ctx, "how do I install it?", "s1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Run install.sh." {
		t.Errorf("answer = %q", answer)
	}

	// The answer prompt's context block must contain the install chunk and
	// rank it first.
	calls := model.Calls()
	answerCall := calls[len(calls)-1]
	contextBlock := answerCall[1].Content
	if !strings.Contains(contextBlock, "install.sh script") {
		t.Errorf("context block missing install chunk: %q", contextBlock)
	}
	first := strings.SplitN(strings.TrimPrefix(contextBlock, "Context chunks:\n\n"), "\n\n", 2)[0]
	if !strings.Contains(first, "Installation") {
		t.Errorf("top-ranked chunk = %q, want the installation section", first)
	}

	if sessions.GetOrCreate("s1").Len() != 2 {
		t.Errorf("session should hold one exchange")
	}

	// Purge empties both collections and subsequent retrieval finds nothing.
	if err := pipeline.PurgeAll(ctx); err != nil {
		t.Fatalf("PurgeAll failed: %v", err)
	}
	records, err := retriever.SemanticSearch(ctx, models.CollectionChunks, "install", retrieval.SearchOptions{})
	if err != nil {
		t.Fatalf("SemanticSearch failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("store should be empty after purge, got %d records", len(records))
	}
}
