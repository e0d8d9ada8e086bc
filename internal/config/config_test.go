package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
vespa:
  host: vespa.internal
ingest:
  chunk_size: 200
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Vespa.Host != "vespa.internal" {
		t.Errorf("vespa host = %q", cfg.Vespa.Host)
	}
	if cfg.Vespa.Port != 8080 {
		t.Errorf("vespa port default = %d, want 8080", cfg.Vespa.Port)
	}
	if cfg.Ingest.ChunkSize != 200 {
		t.Errorf("chunk_size = %d, want 200", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 50 {
		t.Errorf("chunk_overlap default = %d, want 50", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Chat.ContextChunks != 5 {
		t.Errorf("context_chunks default = %d, want 5", cfg.Chat.ContextChunks)
	}
	if cfg.Search.Hits != 50 || cfg.Search.TargetHits != 50 {
		t.Errorf("search defaults = %d/%d, want 50/50", cfg.Search.Hits, cfg.Search.TargetHits)
	}
	if cfg.Search.Ranking != "embedding_query" {
		t.Errorf("ranking default = %q", cfg.Search.Ranking)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestExpandPathRelativeToConfigDir(t *testing.T) {
	got := expandPath("./data/manifest.db", "/etc/kotae")
	want := filepath.Join("/etc/kotae", "data/manifest.db")
	if got != want {
		t.Errorf("expandPath = %q, want %q", got, want)
	}
}

func TestVespaURL(t *testing.T) {
	v := VespaConfig{Host: "localhost", Port: 8080}
	if v.URL() != "http://localhost:8080" {
		t.Errorf("URL = %q", v.URL())
	}
}
