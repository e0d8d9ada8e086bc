package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/vespa"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]map[string]models.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]map[string]models.Record{}}
}

func (s *fakeStore) InsertOne(ctx context.Context, collection string, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = map[string]models.Record{}
	}
	s.data[collection][rec.ID] = rec
	return nil
}

func (s *fakeStore) InsertMany(ctx context.Context, collection string, recs []models.Record) error {
	for _, rec := range recs {
		if err := s.InsertOne(ctx, collection, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) Query(ctx context.Context, body vespa.QueryBody) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var collection string
	for _, c := range []string{models.CollectionResources, models.CollectionChunks} {
		if strings.Contains(body.YQL, " from "+c+" ") {
			collection = c
		}
	}
	var out []models.Record
	for _, rec := range s.data[collection] {
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) DeleteMany(ctx context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.data[collection], id)
	}
	return nil
}

func (s *fakeStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[collection])
}

func newTestServer(t *testing.T, model llm.ChatModel) (*httptest.Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	embedder := embedding.NewMockEmbedder(8)
	pipeline := ingest.NewPipeline(store, embedder, ingest.NewChunker(500, 50))
	retriever := retrieval.NewRetriever(store, embedder, "embedding_query", 50, 50, nil)
	sessions := session.NewStore()
	engine := chat.NewEngine(retriever, model, sessions, 5, nil)

	srv := NewServer(engine, pipeline, store, sessions, nil,
		&config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHandleChat(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("rephrased", "the answer"))

	resp := postJSON(t, ts.URL+"/api/v1/chat", chatRequest{Question: "how do I install?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["answer"] != "the answer" {
		t.Errorf("answer = %v", body["answer"])
	}
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Error("a session id should be generated when omitted")
	}
}

func TestHandleChatKeepsSession(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("r1", "a1", "r2", "a2"))

	resp := postJSON(t, ts.URL+"/api/v1/chat", chatRequest{Question: "q1", SessionID: "fixed"})
	body := decodeBody(t, resp)
	if body["session_id"] != "fixed" {
		t.Errorf("session_id = %v, want fixed", body["session_id"])
	}
	resp2 := postJSON(t, ts.URL+"/api/v1/chat", chatRequest{Question: "q2", SessionID: "fixed"})
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("second chat status = %d", resp2.StatusCode)
	}
	decodeBody(t, resp2)
}

func TestHandleChatValidation(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("a"))

	resp := postJSON(t, ts.URL+"/api/v1/chat", chatRequest{Question: "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	decodeBody(t, resp)
}

func TestHandleIngestDocument(t *testing.T) {
	ts, store := newTestServer(t, llm.NewMockModel("a"))

	resp := postJSON(t, ts.URL+"/api/v1/documents", ingestRequest{
		Text:         "# Title\n\nHello world. This is a test.",
		ResourceType: models.ResourceTypeMarkdown,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["resource_id"] == "" {
		t.Error("missing resource_id")
	}
	if store.count(models.CollectionResources) != 1 {
		t.Errorf("resource count = %d", store.count(models.CollectionResources))
	}
}

func TestHandleIngestDocumentBadType(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("a"))
	resp := postJSON(t, ts.URL+"/api/v1/documents", ingestRequest{Text: "x", ResourceType: "image/png"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	decodeBody(t, resp)
}

func TestHandleIngestFile(t *testing.T) {
	ts, store := newTestServer(t, llm.NewMockModel("a"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("# Notes\n\nsome body"))
	_ = mw.Close()

	resp, err := http.Post(ts.URL+"/api/v1/files", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["resource_type"] != models.ResourceTypeMarkdown {
		t.Errorf("resource_type = %v", body["resource_type"])
	}
	if store.count(models.CollectionResources) != 1 {
		t.Error("file was not ingested")
	}
}

func TestHandleIngestFileMissingField(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("a"))
	resp, err := http.Post(ts.URL+"/api/v1/files", "multipart/form-data; boundary=x", strings.NewReader("--x--"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	decodeBody(t, resp)
}

func TestHandleRemoveSession(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("r", "a"))

	postJSON(t, ts.URL+"/api/v1/chat", chatRequest{Question: "q", SessionID: "s1"}).Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/sessions/s1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	decodeBody(t, resp)

	resp2, err := http.DefaultClient.Do(req.Clone(context.Background()))
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("removing an unknown session: status = %d, want 404", resp2.StatusCode)
	}
	decodeBody(t, resp2)
}

func TestHandlePurge(t *testing.T) {
	ts, store := newTestServer(t, llm.NewMockModel("a"))

	postJSON(t, ts.URL+"/api/v1/documents", ingestRequest{
		Text:         "purge me please, a reasonably sized body of text",
		ResourceType: models.ResourceTypePlain,
	}).Body.Close()
	if store.count(models.CollectionResources) != 1 {
		t.Fatal("seed ingest failed")
	}

	resp, err := http.Post(ts.URL+"/api/v1/admin/purge", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	decodeBody(t, resp)
	if store.count(models.CollectionResources) != 0 || store.count(models.CollectionChunks) != 0 {
		t.Error("store not emptied")
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, llm.NewMockModel("a"))

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["store_reachable"] != true {
		t.Errorf("store_reachable = %v", body["store_reachable"])
	}

	resp2, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("health = %d", resp2.StatusCode)
	}
	decodeBody(t, resp2)
}
