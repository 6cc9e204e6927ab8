// Package main provides the MCP server entry point for the mentor knowledge base.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mike-a-ellis/mentor-index/internal/config"
	"github.com/mike-a-ellis/mentor-index/internal/embedding"
	"github.com/mike-a-ellis/mentor-index/internal/logging"
	mcpserver "github.com/mike-a-ellis/mentor-index/internal/mcp"
	"github.com/mike-a-ellis/mentor-index/internal/search"
	"github.com/mike-a-ellis/mentor-index/internal/storage"
)

func main() {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout carries the stdio transport, so logs go to stderr
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(logger)

	if err := cfg.RequireOpenAI(); err != nil {
		return err
	}
	client, err := embedding.NewClient(embedding.ClientConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.EmbeddingModel, 1)

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	searcher := search.NewSearcher(embedder, store)
	if h := searcher.Health(ctx); !h.Available {
		logger.Warn("Index not available yet", "index", cfg.Store.IndexName, "error", h.Err)
	} else {
		logger.Info("Index ready", "index", cfg.Store.IndexName, "vectors", h.VectorCount)
	}

	server := mcpserver.NewServer(&mcpserver.Config{Searcher: searcher})
	mux := mcpserver.NewMux(server, store, &mcpserver.HTTPHandlerOptions{Stateless: cfg.Server.Stateless})
	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.HTTPMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		logger.Info("Starting HTTP server", "addr", httpServer.Addr, "mcp", "/mcp", "health", "/health")
		return serveHTTP(ctx, httpServer)
	}

	// Stdio mode: run MCP over stdin/stdout for local clients, with the
	// health endpoint in the background for local testing
	go func() {
		logger.Info("Starting health server", "addr", httpServer.Addr)
		if err := serveHTTP(ctx, httpServer); err != nil {
			logger.Warn("Health server error", "error", err)
		}
	}()

	logger.Info("Starting mentor MCP server (stdio mode)")
	return server.Run(ctx)
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
