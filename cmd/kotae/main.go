// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/manifest"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/vespa"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so "kotae server" from the project dir picks up the local config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Provider keys usually live in a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "chat":
		runChat()
	case "purge":
		runPurge()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watch *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		pipeline := components.Pipeline
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watch = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, _, err := pipeline.IngestFile(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watch.Stop()
		go watch.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Pipeline,
		components.Store,
		components.Sessions,
		components.Manifest,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		ingested, skipped, failed, err := components.Pipeline.IngestDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s (%d unchanged, %d failed)\n", ingested, path, skipped, failed)
		return
	}
	resource, skipped, err := components.Pipeline.IngestFile(ctx, path)
	if err != nil {
		fmt.Printf("Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	if skipped {
		fmt.Printf("Unchanged, skipped: %s\n", path)
		return
	}
	fmt.Printf("Ingested resource: %s\n", resource.ID)
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8088", "server URL")
	sessionID := fs.String("session", "", "session id (omit to start a new conversation)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae chat [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: kotae chat [flags] <question>")
		os.Exit(1)
	}

	body, _ := json.Marshal(map[string]string{"question": question, "session_id": *sessionID})
	resp, err := http.Post(*serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Chat failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Answer    string `json:"answer"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out.Answer)
	if *sessionID == "" {
		fmt.Fprintf(os.Stderr, "\nsession: %s (pass --session %s to continue)\n", out.SessionID, out.SessionID)
	}
}

func runPurge() {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	yes := fs.Bool("yes", false, "skip confirmation")
	_ = fs.Parse(os.Args[2:])

	if !*yes {
		fmt.Print("This deletes every stored resource and chunk. Continue? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Pipeline.PurgeAll(context.Background()); err != nil {
		fmt.Printf("Purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Purged all resources and chunks.")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8088", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
	case "text":
		if v, ok := status["store_reachable"]; ok {
			fmt.Printf("store_reachable:  %v\n", v)
		}
		if v, ok := status["tracked_files"]; ok {
			fmt.Printf("tracked_files:    %v\n", v)
		}
		if v, ok := status["sessions"]; ok {
			fmt.Printf("sessions:         %v\n", v)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Manifest *manifest.Manifest
	Embedder embedding.Embedder
	Store    *vespa.Client
	Pipeline *ingest.Pipeline
	Sessions *session.Store
	Engine   *chat.Engine
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Manifest != nil {
		_ = c.Manifest.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	m, err := manifest.Open(cfg.Manifest.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	embedder, err := embedding.NewOpenAIEmbedder(&cfg.Embedding)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store := vespa.NewClient(&cfg.Vespa)

	pipeline := ingest.NewPipeline(store, embedder,
		ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingest.WithLogger(logger),
		ingest.WithManifest(m),
	)

	model, err := llm.NewAnthropicModel(&cfg.Chat)
	if err != nil {
		_ = embedder.Close()
		_ = m.Close()
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	retriever := retrieval.NewRetriever(store, embedder,
		cfg.Search.Ranking, cfg.Search.Hits, cfg.Search.TargetHits, logger)
	sessions := session.NewStore()
	engine := chat.NewEngine(retriever, model, sessions, cfg.Chat.ContextChunks, logger)

	return &Components{
		Manifest: m,
		Embedder: embedder,
		Store:    store,
		Pipeline: pipeline,
		Sessions: sessions,
		Engine:   engine,
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - Retrieval-grounded documentation assistant

Usage:
  kotae server [flags]             Start the HTTP server
  kotae ingest [flags] <path>      Ingest a file or directory
  kotae chat [flags] <question>    Ask a question (talks to a running server)
  kotae purge [flags]              Delete every stored resource and chunk
  kotae status [flags]             Show server status
  kotae version                    Show version
  kotae help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path

Chat Flags:
  --server string    Server URL (default: http://localhost:8088)
  --session string   Session id; omit to start a new conversation

Purge Flags:
  --config string    Config file path
  --yes              Skip confirmation

Status Flags:
  --server string    Server URL (default: http://localhost:8088)
  --output string    Output format: text or json (default: text)

Examples:
  kotae server
  kotae ingest ./docs
  kotae chat "How do I install the software?"
  kotae chat --session 6f1c... "What does it do?"
  kotae status --output json
  kotae purge --yes`)
}
