package models

// Store collection names.
const (
	CollectionResources = "resources"
	CollectionChunks    = "chunks"
)

// Field names used in store records.
const (
	FieldResourceID   = "resource_id"
	FieldResourceType = "resource_type"
	FieldRawText      = "raw_text"
	FieldCleanedText  = "cleaned_text"
	FieldChunkID      = "chunk_id"
	FieldChunkText    = "chunk_text"
	FieldChunkOrdinal = "chunk_ordinal"
	FieldEmbedding    = "embedding"
)

// Record is the store's generic wire shape: an id plus a flat field mapping.
// Typed Resource/Chunk structs convert to and from this form at the store
// boundary only.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ResourceRecord converts r to the generic record shape for the resources collection.
func ResourceRecord(r *Resource) Record {
	return Record{
		ID: r.ID,
		Fields: map[string]any{
			FieldResourceID:   r.ID,
			FieldResourceType: r.Type,
			FieldRawText:      r.RawText,
			FieldCleanedText:  r.CleanedText,
			FieldEmbedding:    r.Embedding,
		},
	}
}

// ChunkRecord converts c to the generic record shape for the chunks collection.
func ChunkRecord(c *Chunk) Record {
	return Record{
		ID: c.ID,
		Fields: map[string]any{
			FieldChunkID:      c.ID,
			FieldResourceID:   c.ResourceID,
			FieldResourceType: c.Type,
			FieldChunkText:    c.Text,
			FieldChunkOrdinal: c.Ordinal,
			FieldEmbedding:    c.Embedding,
		},
	}
}

// StringField returns the named field as a string, or "" when absent or not a string.
func (r Record) StringField(name string) string {
	v, ok := r.Fields[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IntField returns the named field as an int. JSON decoding yields float64 for
// numbers, so both are accepted.
func (r Record) IntField(name string) int {
	switch n := r.Fields[name].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
