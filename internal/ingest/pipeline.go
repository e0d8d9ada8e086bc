// Package ingest turns raw document text into stored resources and embedded
// chunks: normalize, hash, embed, and write to the vector store.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/identity"
	"github.com/hyperjump/kotae/internal/manifest"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vespa"
)

// purgeQueryHits bounds one purge sweep; PurgeAll repeats sweeps until the
// collection comes back empty.
const purgeQueryHits = 10000

// Pipeline ingests documents: it derives content-addressed ids, embeds the
// resource and its chunks, and writes both to the store. The resource record
// is written before its chunks, so a chunk never references a missing parent.
type Pipeline struct {
	store     vespa.Store
	embedder  embedding.Embedder
	chunker   *Chunker
	extractor *extract.Extractor
	manifest  *manifest.Manifest
	logger    *zap.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithManifest enables file change tracking so unchanged files are skipped.
func WithManifest(m *manifest.Manifest) Option {
	return func(p *Pipeline) { p.manifest = m }
}

// NewPipeline creates a pipeline over the given store, embedder, and chunker.
func NewPipeline(store vespa.Store, embedder embedding.Embedder, chunker *Chunker, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		embedder:  embedder,
		chunker:   chunker,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest stores text as a resource plus its embedded chunks and returns the
// resource. Ingesting identical text again produces the same ids and
// overwrites the existing records, so the operation is idempotent.
func (p *Pipeline) Ingest(ctx context.Context, text, resourceType string) (*models.Resource, error) {
	if !models.SupportedResourceType(resourceType) {
		return nil, &models.ValidationError{Field: "resource_type", Reason: fmt.Sprintf("unsupported type %q", resourceType)}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &models.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	resourceID := identity.ContentHash(text)

	// PDF extraction scatters hard newlines mid-sentence; collapse them.
	// Markdown and plain text keep their line structure.
	cleaned := text
	if resourceType == models.ResourceTypePDF {
		cleaned = NormalizeNewlines(text)
	}

	resourceEmbedding, err := p.embedder.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed resource %s: %w", resourceID, err)
	}
	resource := &models.Resource{
		ID:          resourceID,
		Type:        resourceType,
		RawText:     text,
		CleanedText: cleaned,
		Embedding:   resourceEmbedding,
	}
	if err := p.store.InsertOne(ctx, models.CollectionResources, models.ResourceRecord(resource)); err != nil {
		return nil, fmt.Errorf("store resource %s: %w", resourceID, err)
	}

	var pieces []string
	if resourceType == models.ResourceTypeMarkdown {
		pieces = SplitMarkdownSections(cleaned)
	} else {
		pieces = p.chunker.Chunk(cleaned)
	}
	if len(pieces) == 0 {
		return resource, nil
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed chunks of %s: %w", resourceID, err)
	}
	records := make([]models.Record, 0, len(pieces))
	for i, piece := range pieces {
		chunk := &models.Chunk{
			ID:         identity.ChunkHash(resourceID, piece),
			ResourceID: resourceID,
			Type:       resourceType,
			Text:       piece,
			Ordinal:    i,
			Embedding:  embeddings[i],
		}
		records = append(records, models.ChunkRecord(chunk))
	}
	if err := p.store.InsertMany(ctx, models.CollectionChunks, records); err != nil {
		return nil, fmt.Errorf("store chunks of %s: %w", resourceID, err)
	}

	p.logger.Info("ingested resource",
		zap.String("resource_id", resourceID),
		zap.String("resource_type", resourceType),
		zap.Int("chunks", len(records)))
	return resource, nil
}

// IngestFile extracts and ingests one file. When a manifest is configured and
// the file's mtime and size are unchanged since the last ingest, the file is
// skipped and the returned skipped flag is true.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*models.Resource, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if p.manifest != nil {
		unchanged, err := p.manifest.Unchanged(ctx, path, info.ModTime().UnixNano(), info.Size())
		if err != nil {
			return nil, false, err
		}
		if unchanged {
			p.logger.Debug("skipping unchanged file", zap.String("path", path))
			return nil, true, nil
		}
	}

	text, resourceType, err := p.extractor.Extract(path)
	if err != nil {
		return nil, false, fmt.Errorf("extract %s: %w", path, err)
	}
	resource, err := p.Ingest(ctx, text, resourceType)
	if err != nil {
		return nil, false, err
	}

	if p.manifest != nil {
		entry := &manifest.Entry{
			Path:         path,
			ResourceID:   resource.ID,
			ResourceType: resource.Type,
			MTime:        info.ModTime().UnixNano(),
			Size:         info.Size(),
		}
		if err := p.manifest.Record(ctx, entry); err != nil {
			p.logger.Warn("failed to record manifest entry", zap.String("path", path), zap.Error(err))
		}
	}
	return resource, false, nil
}

// IngestDirectory walks dir and ingests every regular file whose extension is
// in extensions (lowercase, with leading dot; empty means all files). Files
// that fail are logged and counted, not fatal; the walk continues.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, extensions []string) (ingested, skipped, failed int, err error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, wasSkipped, err := p.IngestFile(ctx, path)
		switch {
		case err != nil:
			failed++
			p.logger.Warn("failed to ingest file", zap.String("path", path), zap.Error(err))
		case wasSkipped:
			skipped++
		default:
			ingested++
		}
		return nil
	})
	if walkErr != nil {
		return ingested, skipped, failed, fmt.Errorf("walk %s: %w", dir, walkErr)
	}
	return ingested, skipped, failed, nil
}

// PurgeAll deletes every resource and chunk from the store and clears the
// manifest. An empty store is a no-op. Purging is the only delete path; there
// is no per-document removal.
func (p *Pipeline) PurgeAll(ctx context.Context) error {
	collections := []struct {
		name    string
		idField string
	}{
		{models.CollectionResources, models.FieldResourceID},
		{models.CollectionChunks, models.FieldChunkID},
	}
	for _, col := range collections {
		for {
			records, err := p.store.Query(ctx, vespa.QueryBody{
				YQL:  fmt.Sprintf("select * from %s where true", col.name),
				Hits: purgeQueryHits,
			})
			if err != nil {
				return fmt.Errorf("purge query %s: %w", col.name, err)
			}
			ids := make([]string, 0, len(records))
			for _, rec := range records {
				id := rec.StringField(col.idField)
				if id == "" {
					id = rec.ID
				}
				if id != "" {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				break
			}
			if err := p.store.DeleteMany(ctx, col.name, ids); err != nil {
				return fmt.Errorf("purge delete %s: %w", col.name, err)
			}
			p.logger.Info("purged collection", zap.String("collection", col.name), zap.Int("records", len(ids)))
			if len(records) < purgeQueryHits {
				break
			}
		}
	}
	if p.manifest != nil {
		if err := p.manifest.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}
