package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/mentor-index/internal/chunker"
)

// unsetenv clears keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "") // registers the restore
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env files here
	unsetenv(t, "OPENAI_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_BATCH_SIZE", "TRANSCRIPTION_MODEL",
		"VECTOR_STORE", "INDEX_NAME", "QDRANT_PORT", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"YTDLP_PATH", "YTDLP_TIMEOUT", "PORT", "SERVER_MODE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 100, cfg.OpenAI.EmbeddingBatchSize)
	assert.Equal(t, "whisper-1", cfg.OpenAI.TranscriptionModel)
	assert.Equal(t, StoreQdrant, cfg.Store.Kind)
	assert.Equal(t, "asu-mentor", cfg.Store.IndexName)
	assert.Equal(t, 6334, cfg.Store.QdrantPort)
	assert.Equal(t, 512, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 30*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, "yt-dlp", cfg.Metadata.YTDLPPath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.HTTPMode)
	require.NoError(t, cfg.Validate())

	assert.ErrorIs(t, cfg.RequireOpenAI(), ErrMissingAPIKey)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_STORE", "chromem")
	t.Setenv("INDEX_NAME", "talks")
	t.Setenv("CHUNK_SIZE", "256")
	t.Setenv("CHUNK_OVERLAP", "32")
	t.Setenv("YTDLP_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireOpenAI())
	assert.Equal(t, StoreChromem, cfg.Store.Kind)
	assert.Equal(t, "talks", cfg.Store.IndexName)
	assert.Equal(t, chunker.Config{Size: 256, Overlap: 32}, cfg.Chunker())
	assert.Equal(t, 45*time.Second, cfg.Metadata.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:    StoreConfig{Kind: StoreQdrant, IndexName: "asu-mentor"},
			Chunking: ChunkingConfig{Size: 512, Overlap: 50},
			Metadata: MetadataConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"overlap too large", func(c *Config) { c.Chunking.Overlap = 600 }, chunker.ErrInvalidConfig},
		{"unknown store", func(c *Config) { c.Store.Kind = "pinecone" }, nil},
		{"empty index", func(c *Config) { c.Store.IndexName = "" }, nil},
		{"zero timeout", func(c *Config) { c.Metadata.Timeout = 0 }, nil},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
