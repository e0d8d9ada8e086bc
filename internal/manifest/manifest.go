// Package manifest keeps a local SQLite ledger of ingested files so unchanged
// files can be skipped on directory ingest and watch events. It is bookkeeping
// only; the vector store remains the owner of resources and chunks.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one ingested file: where it came from, the resource it produced,
// and the stat fingerprint used for change detection.
type Entry struct {
	Path         string
	ResourceID   string
	ResourceType string
	MTime        int64
	Size         int64
	UpdatedAt    time.Time
}

// Manifest is the SQLite-backed ingest ledger.
type Manifest struct {
	db *sql.DB
}

// Open opens or creates the manifest database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func Open(dbPath string) (*Manifest, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS ingested_files (
		path TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ingested_resource_id ON ingested_files(resource_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}
	return &Manifest{db: db}, nil
}

// Lookup returns the entry for path, or nil when the path was never recorded.
func (m *Manifest) Lookup(ctx context.Context, path string) (*Entry, error) {
	var e Entry
	err := m.db.QueryRowContext(ctx,
		`SELECT path, resource_id, resource_type, mtime, size, updated_at
		 FROM ingested_files WHERE path = ?`, path,
	).Scan(&e.Path, &e.ResourceID, &e.ResourceType, &e.MTime, &e.Size, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest lookup %s: %w", path, err)
	}
	return &e, nil
}

// Record upserts the entry for e.Path.
func (m *Manifest) Record(ctx context.Context, e *Entry) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO ingested_files (path, resource_id, resource_type, mtime, size, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   resource_id = excluded.resource_id,
		   resource_type = excluded.resource_type,
		   mtime = excluded.mtime,
		   size = excluded.size,
		   updated_at = excluded.updated_at`,
		e.Path, e.ResourceID, e.ResourceType, e.MTime, e.Size, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("manifest record %s: %w", e.Path, err)
	}
	return nil
}

// Unchanged reports whether path is already recorded with the same mtime and size.
func (m *Manifest) Unchanged(ctx context.Context, path string, mtime, size int64) (bool, error) {
	e, err := m.Lookup(ctx, path)
	if err != nil || e == nil {
		return false, err
	}
	return e.MTime == mtime && e.Size == size, nil
}

// Clear removes all entries. Called alongside a store purge so change
// detection restarts cleanly.
func (m *Manifest) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM ingested_files`); err != nil {
		return fmt.Errorf("manifest clear: %w", err)
	}
	return nil
}

// Count returns the number of recorded files.
func (m *Manifest) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingested_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("manifest count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	return m.db.Close()
}
