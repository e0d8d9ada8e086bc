// Package models defines core data structures for resources, chunks, store
// records, and conversation messages.
package models

import "time"

// Resource type tags accepted by the ingestion pipeline. They follow MIME
// naming so upload handlers can pass Content-Type through unchanged.
const (
	ResourceTypePDF      = "application/pdf"
	ResourceTypeMarkdown = "text/markdown"
	ResourceTypePlain    = "text/plain"
)

// SupportedResourceType reports whether t is a resource type the pipeline accepts.
func SupportedResourceType(t string) bool {
	switch t {
	case ResourceTypePDF, ResourceTypeMarkdown, ResourceTypePlain:
		return true
	}
	return false
}

// Resource is one ingested document: full text, its normalized form, and embedding.
// ID is a pure function of RawText, so re-ingesting identical content converges
// on the same record.
type Resource struct {
	ID          string    `json:"resource_id"`
	Type        string    `json:"resource_type"`
	RawText     string    `json:"raw_text"`
	CleanedText string    `json:"cleaned_text"`
	Embedding   []float32 `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chunk is a contiguous sub-span of a resource's cleaned text, independently
// embedded. Ordinal is dense and zero-based within the parent resource and
// defines reconstruction order.
type Chunk struct {
	ID         string    `json:"chunk_id"`
	ResourceID string    `json:"resource_id"`
	Type       string    `json:"resource_type"`
	Text       string    `json:"chunk_text"`
	Ordinal    int       `json:"chunk_ordinal"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
