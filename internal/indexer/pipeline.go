// Package indexer builds the vector index from transcripts and markdown
// resources: load, chunk, embed, upload.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mike-a-ellis/mentor-index/internal/chunker"
	"github.com/mike-a-ellis/mentor-index/internal/content"
	"github.com/mike-a-ellis/mentor-index/internal/embedding"
	"github.com/mike-a-ellis/mentor-index/internal/storage"
)

// DefaultUploadBatchSize is the number of vectors sent per upsert.
const DefaultUploadBatchSize = 100

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Sources are the directories documents are loaded from. An empty path is skipped.
type Sources struct {
	Transcripts string
	Resources   string
	Frameworks  string
}

// Options tunes a pipeline. Zero values fall back to the defaults.
type Options struct {
	Chunking        chunker.Config
	Dimension       int
	Metric          storage.Metric
	UploadBatchSize int
	Counter         embedding.TokenCounter // for the cost estimate
}

// BuildResult contains statistics about an indexing run.
type BuildResult struct {
	Documents    int
	Chunks       int
	Failures     []content.LoadFailure
	Estimate     embedding.Estimate
	IndexCreated bool
	Stats        *storage.Stats
	Duration     time.Duration
}

// Pipeline orchestrates the indexing process from loading to storage.
type Pipeline struct {
	loader   *content.Loader
	embedder Embedder
	store    storage.VectorStore
	opts     Options
	logger   *slog.Logger
}

// NewPipeline creates a new indexing pipeline with the given components.
func NewPipeline(embedder Embedder, store storage.VectorStore, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Chunking == (chunker.Config{}) {
		opts.Chunking = chunker.DefaultConfig()
	}
	if opts.Dimension <= 0 {
		opts.Dimension = embedding.Dimension
	}
	if opts.Metric == "" {
		opts.Metric = storage.MetricCosine
	}
	if opts.UploadBatchSize <= 0 {
		opts.UploadBatchSize = DefaultUploadBatchSize
	}
	if opts.Counter == nil {
		opts.Counter = embedding.WordCounter{}
	}
	return &Pipeline{
		loader:   content.NewLoader(logger),
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Load reads every document from src. Unreadable files are returned as
// failures; missing directories yield nothing.
func (p *Pipeline) Load(src Sources) ([]content.Document, []content.LoadFailure) {
	var docs []content.Document
	var failures []content.LoadFailure

	if src.Transcripts != "" {
		d, f := p.loader.LoadTranscripts(src.Transcripts)
		docs = append(docs, d...)
		failures = append(failures, f...)
	}
	for _, dir := range []struct{ path, sourceType string }{
		{src.Resources, content.SourceASUResource},
		{src.Frameworks, content.SourceFramework},
	} {
		if dir.path == "" {
			continue
		}
		d, f := p.loader.LoadMarkdown(dir.path, dir.sourceType)
		docs = append(docs, d...)
		failures = append(failures, f...)
	}
	return docs, failures
}

// Chunk splits every document with the configured window.
func (p *Pipeline) Chunk(docs []content.Document) ([]chunker.Chunk, error) {
	var chunks []chunker.Chunk
	for _, doc := range docs {
		c, err := chunker.ChunkDocument(doc, p.opts.Chunking)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		chunks = append(chunks, c...)
	}
	return chunks, nil
}

// Build loads, chunks, embeds and uploads all documents from src.
// A run with no documents is a no-op and returns an empty result.
func (p *Pipeline) Build(ctx context.Context, src Sources) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}

	if err := p.opts.Chunking.Validate(); err != nil {
		return nil, err
	}

	// 1. Load documents
	docs, failures := p.Load(src)
	result.Documents = len(docs)
	result.Failures = failures
	p.logger.Info("Loaded documents", "count", len(docs), "failed", len(failures))

	if len(docs) == 0 {
		p.logger.Info("No documents to index")
		result.Duration = time.Since(start)
		return result, nil
	}

	// 2. Chunk documents
	chunks, err := p.Chunk(docs)
	if err != nil {
		return nil, err
	}
	result.Chunks = len(chunks)
	p.logger.Info("Created chunks", "count", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	result.Estimate = embedding.EstimateCost(p.opts.Counter, texts)
	p.logger.Info("Embedding estimate",
		"texts", result.Estimate.Texts,
		"tokens", result.Estimate.Tokens,
		"cost_usd", fmt.Sprintf("%.4f", result.Estimate.CostUSD),
	)

	// 3. Make sure the index exists before spending on embeddings
	created, err := p.store.EnsureIndex(ctx, p.opts.Dimension, p.opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	result.IndexCreated = created
	if created {
		p.logger.Info("Created index", "dimension", p.opts.Dimension, "metric", p.opts.Metric)
	}

	// 4. Generate embeddings
	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embeddings: expected %d vectors, got %d", len(chunks), len(embeddings))
	}

	// 5. Upload in batches
	for i := 0; i < len(chunks); i += p.opts.UploadBatchSize {
		end := min(i+p.opts.UploadBatchSize, len(chunks))

		vectors := make([]storage.Vector, 0, end-i)
		for j := i; j < end; j++ {
			vectors = append(vectors, toVector(chunks[j], embeddings[j]))
		}
		if err := p.store.Upsert(ctx, vectors); err != nil {
			return nil, fmt.Errorf("upsert %d-%d: %w", i, end, err)
		}
		p.logger.Debug("Uploaded batch", "progress", fmt.Sprintf("%d/%d", end, len(chunks)))
	}

	// 6. Report index stats
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	result.Stats = stats

	result.Duration = time.Since(start)
	p.logger.Info("Indexing complete",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"vectors", stats.VectorCount,
		"duration", result.Duration,
	)
	return result, nil
}

// toVector attaches the truncated chunk text to the chunk's metadata.
func toVector(c chunker.Chunk, values []float32) storage.Vector {
	meta := make(map[string]any, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta["text"] = storage.TruncateText(c.Text, storage.MetadataTextLimit)
	return storage.Vector{ID: c.ID, Values: values, Metadata: meta}
}
