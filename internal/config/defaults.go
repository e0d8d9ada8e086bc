package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8088
	}
	if cfg.Vespa.Host == "" {
		cfg.Vespa.Host = "localhost"
	}
	if cfg.Vespa.Port == 0 {
		cfg.Vespa.Port = 8080
	}
	if cfg.Vespa.Namespace == "" {
		cfg.Vespa.Namespace = "kotae"
	}
	if cfg.Vespa.TimeoutSeconds == 0 {
		cfg.Vespa.TimeoutSeconds = 10
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-large"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 3072
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 1024
	}
	if cfg.Chat.ContextChunks == 0 {
		cfg.Chat.ContextChunks = 5
	}
	if cfg.Chat.TimeoutSeconds == 0 {
		cfg.Chat.TimeoutSeconds = 60
	}
	if cfg.Search.Ranking == "" {
		cfg.Search.Ranking = "embedding_query"
	}
	if cfg.Search.Hits == 0 {
		cfg.Search.Hits = 50
	}
	if cfg.Search.TargetHits == 0 {
		cfg.Search.TargetHits = 50
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 500
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 50
	}
	if cfg.Manifest.DatabasePath == "" {
		cfg.Manifest.DatabasePath = "/usr/local/var/kotae/data/db/manifest.db"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".md", ".txt", ".docx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
