// Package config loads explicit configuration for the pipeline clients.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/mike-a-ellis/mentor-index/internal/chunker"
)

// Vector store kinds.
const (
	StoreQdrant  = "qdrant"
	StoreChromem = "chromem"
)

// ErrMissingAPIKey is returned when a command needs OpenAI but no key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// Config is the full configuration handed to each command.
type Config struct {
	OpenAI   OpenAIConfig
	Store    StoreConfig
	Chunking ChunkingConfig
	Metadata MetadataConfig
	Server   ServerConfig
	Log      LogConfig
}

// OpenAIConfig configures the embedding and transcription clients.
type OpenAIConfig struct {
	APIKey             string `env:"OPENAI_API_KEY"`
	BaseURL            string `env:"OPENAI_BASE_URL"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingBatchSize int    `env:"EMBEDDING_BATCH_SIZE" envDefault:"100"`
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
}

// StoreConfig selects and configures the vector index.
type StoreConfig struct {
	Kind         string `env:"VECTOR_STORE" envDefault:"qdrant"`
	IndexName    string `env:"INDEX_NAME" envDefault:"asu-mentor"`
	QdrantHost   string `env:"QDRANT_HOST" envDefault:"localhost"`
	QdrantPort   int    `env:"QDRANT_PORT" envDefault:"6334"`
	QdrantAPIKey string `env:"QDRANT_API_KEY"`
	QdrantTLS    bool   `env:"QDRANT_USE_TLS" envDefault:"false"`
	ChromemPath  string `env:"CHROMEM_PATH" envDefault:"./data/chromem"`
}

// ChunkingConfig mirrors chunker.Config with env bindings.
type ChunkingConfig struct {
	Size    int `env:"CHUNK_SIZE" envDefault:"512"`
	Overlap int `env:"CHUNK_OVERLAP" envDefault:"50"`
}

// MetadataConfig configures the yt-dlp metadata fetcher.
type MetadataConfig struct {
	YTDLPPath string        `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	Timeout   time.Duration `env:"YTDLP_TIMEOUT" envDefault:"30s"`
}

// ServerConfig configures the MCP server binary.
type ServerConfig struct {
	Port      string `env:"PORT" envDefault:"8080"`
	HTTPMode  bool   `env:"SERVER_MODE" envDefault:"false"` // serve MCP over HTTP instead of stdio
	Stateless bool   `env:"MCP_STATELESS" envDefault:"false"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	JSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Load reads .env and .env.local if present, then parses the environment.
func Load() (*Config, error) {
	// Missing files are fine: production sets real environment variables.
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a pipeline.
func (c *Config) Validate() error {
	if err := c.Chunker().Validate(); err != nil {
		return err
	}
	switch c.Store.Kind {
	case StoreQdrant, StoreChromem:
	default:
		return fmt.Errorf("unknown vector store %q (want %s or %s)", c.Store.Kind, StoreQdrant, StoreChromem)
	}
	if c.Store.IndexName == "" {
		return errors.New("index name must not be empty")
	}
	if c.Metadata.Timeout <= 0 {
		return fmt.Errorf("yt-dlp timeout must be positive, got %s", c.Metadata.Timeout)
	}
	return nil
}

// RequireOpenAI reports ErrMissingAPIKey when no key is configured.
func (c *Config) RequireOpenAI() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Chunker returns the chunking parameters.
func (c *Config) Chunker() chunker.Config {
	return chunker.Config{Size: c.Chunking.Size, Overlap: c.Chunking.Overlap}
}
