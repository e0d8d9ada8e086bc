// Package vespa provides the gateway to the Vespa vector store: insert, query,
// and delete over named collections with the generic {id, fields} record shape.
package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// Store defines the vector store operations the rest of the system depends on.
// Implemented by Client; tests substitute an in-memory fake.
type Store interface {
	InsertOne(ctx context.Context, collection string, rec models.Record) error
	InsertMany(ctx context.Context, collection string, recs []models.Record) error
	Query(ctx context.Context, body QueryBody) ([]models.Record, error)
	DeleteMany(ctx context.Context, collection string, ids []string) error
}

// QueryBody is a structured search request. YQL carries the predicate,
// QueryEmbedding (when set) parameterizes the nearestNeighbor clause.
type QueryBody struct {
	YQL            string
	Hits           int
	Ranking        string
	QueryEmbedding []float32
}

// MarshalJSON emits the Vespa search API body, including the dotted
// ranking-feature key for the query embedding.
func (q QueryBody) MarshalJSON() ([]byte, error) {
	body := map[string]any{"yql": q.YQL}
	if q.Hits > 0 {
		body["hits"] = q.Hits
	}
	if q.Ranking != "" {
		body["ranking"] = q.Ranking
	}
	if q.QueryEmbedding != nil {
		body["ranking.features.query(query_embedding)"] = q.QueryEmbedding
	}
	return json.Marshal(body)
}

// Client talks to one Vespa endpoint. Construct one per endpoint at process
// start and inject it; the client is safe for concurrent use.
type Client struct {
	baseURL   string
	namespace string
	http      *http.Client
}

// NewClient creates a store client for the configured endpoint.
func NewClient(cfg *config.VespaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   cfg.URL(),
		namespace: cfg.Namespace,
		http:      &http.Client{Timeout: timeout},
	}
}

// documentURL builds the document/v1 path for one record.
func (c *Client) documentURL(collection, id string) string {
	return fmt.Sprintf("%s/document/v1/%s/%s/docid/%s",
		c.baseURL, c.namespace, collection, url.PathEscape(id))
}

// InsertOne writes one record, stamping created_at and updated_at. The
// caller's Fields map is left untouched.
func (c *Client) InsertOne(ctx context.Context, collection string, rec models.Record) error {
	fields := make(map[string]any, len(rec.Fields)+2)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	now := time.Now().Format(timestampLayout)
	fields["created_at"] = now
	fields["updated_at"] = now

	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return &models.StoreError{Op: "insertOne", Collection: collection, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.documentURL(collection, rec.ID), bytes.NewReader(body))
	if err != nil {
		return &models.StoreError{Op: "insertOne", Collection: collection, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.StoreError{Op: "insertOne", Collection: collection, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return &models.StoreError{
			Op:         "insertOne",
			Collection: collection,
			Err:        fmt.Errorf("record %s: status %d: %s", rec.ID, resp.StatusCode, string(b)),
		}
	}
	return nil
}

// InsertMany writes records one by one. Records that fail are reported in a
// BatchError; records already written are not rolled back.
func (c *Client) InsertMany(ctx context.Context, collection string, recs []models.Record) error {
	if len(recs) == 0 {
		return nil
	}
	var failed []string
	for _, rec := range recs {
		if err := c.InsertOne(ctx, collection, rec); err != nil {
			failed = append(failed, rec.ID)
		}
	}
	if len(failed) > 0 {
		return &models.BatchError{Op: "insertMany", Collection: collection, FailedIDs: failed}
	}
	return nil
}

type searchResponse struct {
	Root struct {
		Children []struct {
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		} `json:"children"`
	} `json:"root"`
}

// Query sends a search request and returns the hits in store ranking order.
func (c *Client) Query(ctx context.Context, body QueryBody) ([]models.Record, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &models.StoreError{Op: "query", Collection: "", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/", bytes.NewReader(payload))
	if err != nil {
		return nil, &models.StoreError{Op: "query", Collection: "", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.StoreError{Op: "query", Collection: "", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &models.StoreError{Op: "query", Collection: "", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(b))}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &models.StoreError{Op: "query", Collection: "", Err: fmt.Errorf("decode response: %w", err)}
	}
	records := make([]models.Record, 0, len(parsed.Root.Children))
	for _, hit := range parsed.Root.Children {
		records = append(records, models.Record{ID: docIDFromHit(hit.ID), Fields: hit.Fields})
	}
	return records, nil
}

// docIDFromHit strips the "id:namespace:collection::" prefix of a hit id.
func docIDFromHit(hitID string) string {
	if i := strings.LastIndex(hitID, "::"); i >= 0 {
		return hitID[i+2:]
	}
	return hitID
}

// DeleteMany removes records by id. Failures are collected into a BatchError;
// records already deleted stay deleted.
func (c *Client) DeleteMany(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var failed []string
	for _, id := range ids {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.documentURL(collection, id), nil)
		if err != nil {
			failed = append(failed, id)
			continue
		}
		resp, err := c.http.Do(req)
		if err != nil {
			failed = append(failed, id)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		return &models.BatchError{Op: "deleteMany", Collection: collection, FailedIDs: failed}
	}
	return nil
}

// Health probes the store with a minimal query.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Query(ctx, QueryBody{
		YQL:  fmt.Sprintf("select * from %s where true limit 1", models.CollectionResources),
		Hits: 1,
	})
	return err
}
