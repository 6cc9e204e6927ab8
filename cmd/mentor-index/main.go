// Package main provides the mentor-index CLI: fetch video metadata,
// transcribe audio, and build the vector index behind the mentor chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/mentor-index/internal/config"
	"github.com/mike-a-ellis/mentor-index/internal/embedding"
	"github.com/mike-a-ellis/mentor-index/internal/logging"
	"github.com/mike-a-ellis/mentor-index/internal/storage"
)

// app carries the resolved configuration into every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mentor-index",
		Short: "ASU mentor content indexing tool",
		Long: `CLI tool for turning ASU entrepreneurship videos and resources into a
searchable vector index.

Pipeline:
  fetch-metadata  MP3 files -> content_metadata.json (yt-dlp)
  transcribe      MP3 files + metadata -> transcript JSONs (Whisper)
  build-index     transcripts + markdown -> vector index (OpenAI embeddings)

Environment variables:
  OPENAI_API_KEY  OpenAI API key (required for transcribe, build-index, search)
  VECTOR_STORE    qdrant or chromem (default: qdrant)
  INDEX_NAME      Index/collection name (default: asu-mentor)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  CHROMEM_PATH    chromem database directory (default: ./data/chromem)`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.Bool("log-json", false, "log as JSON (env LOG_JSON)")
	flags.String("index-name", "", "index name (env INDEX_NAME)")
	flags.String("store", "", "vector store: qdrant or chromem (env VECTOR_STORE)")

	rootCmd.AddCommand(
		newFetchMetadataCmd(a),
		newTranscribeCmd(a),
		newBuildIndexCmd(a),
		newStatsCmd(a),
		newSearchCmd(a),
	)
	return rootCmd
}

// setup loads the environment, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("index-name") {
		cfg.Store.IndexName, _ = flags.GetString("index-name")
	}
	if flags.Changed("store") {
		cfg.Store.Kind, _ = flags.GetString("store")
	}
	if flags.Changed("chunk-size") {
		cfg.Chunking.Size, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("overlap") {
		cfg.Chunking.Overlap, _ = flags.GetInt("overlap")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) openStore(ctx context.Context) (storage.VectorStore, error) {
	fmt.Printf("Connecting to %s (index %q)...\n", storage.Describe(a.cfg.Store), a.cfg.Store.IndexName)
	store, err := storage.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return store, nil
}

func (a *app) openAI() (*embedding.Client, error) {
	if err := a.cfg.RequireOpenAI(); err != nil {
		return nil, err
	}
	return embedding.NewClient(embedding.ClientConfig{
		APIKey:  a.cfg.OpenAI.APIKey,
		BaseURL: a.cfg.OpenAI.BaseURL,
	})
}

func (a *app) embedder() (*embedding.Embedder, error) {
	client, err := a.openAI()
	if err != nil {
		return nil, err
	}
	return embedding.NewEmbedder(client, a.cfg.OpenAI.EmbeddingModel, a.cfg.OpenAI.EmbeddingBatchSize), nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
