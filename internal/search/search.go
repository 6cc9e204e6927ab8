// Package search answers questions against the built index: it embeds a
// query, retrieves the nearest chunks and formats them for a prompt or a UI.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mike-a-ellis/mentor-index/internal/storage"
)

const (
	// DefaultTopK is the number of matches returned when none is requested.
	DefaultTopK = 5

	// SnippetLength is the number of characters kept in a source snippet.
	SnippetLength = 200

	// NoResultsMessage is the context returned when nothing matched.
	NoResultsMessage = "No relevant content found in the knowledge base."
)

// QueryEmbedder turns query text into a vector.
type QueryEmbedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one retrieved chunk.
type Result struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Source is a citation shown alongside an answer.
type Source struct {
	Title   string `json:"title"`
	Speaker string `json:"speaker,omitempty"`
	URL     string `json:"url,omitempty"`
	Type    string `json:"type"`
	Snippet string `json:"relevance_snippet"`
}

// Health describes index availability. Err is empty when available.
type Health struct {
	Available   bool   `json:"available"`
	VectorCount uint64 `json:"vector_count"`
	Err         string `json:"error,omitempty"`
}

// Searcher queries a vector store with embedded text.
type Searcher struct {
	embedder QueryEmbedder
	store    storage.VectorStore
}

// NewSearcher creates a searcher over store.
func NewSearcher(embedder QueryEmbedder, store storage.VectorStore) *Searcher {
	return &Searcher{embedder: embedder, store: store}
}

// Query embeds query and returns the topK closest chunks, best first.
// A topK of 0 or less means DefaultTopK.
func (s *Searcher) Query(ctx context.Context, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("failed to embed query: got %d vectors", len(embeddings))
	}

	matches, err := s.store.Query(ctx, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			ID:       m.ID,
			Text:     str(m.Metadata, "text"),
			Score:    m.Score,
			Metadata: m.Metadata,
		}
	}
	return results, nil
}

// FormatContext renders results as numbered source blocks for an LLM prompt.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return NoResultsMessage
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		sourceType := orDefault(str(r.Metadata, "source_type"), "unknown")
		title := orDefault(str(r.Metadata, "title"), "Unknown")
		speaker := ""
		if sp := str(r.Metadata, "speaker"); sp != "" {
			speaker = " (" + sp + ")"
		}
		blocks[i] = fmt.Sprintf("[Source %d] [%s] %s%s:\n%s", i+1, sourceType, title, speaker, r.Text)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// FormatSources converts results into citations with a short snippet.
func FormatSources(results []Result) []Source {
	sources := make([]Source, len(results))
	for i, r := range results {
		snippet := storage.TruncateText(r.Text, SnippetLength)
		if snippet != r.Text {
			snippet += "..."
		}
		sources[i] = Source{
			Title:   orDefault(str(r.Metadata, "title"), "Unknown"),
			Speaker: str(r.Metadata, "speaker"),
			URL:     str(r.Metadata, "source_url"),
			Type:    str(r.Metadata, "source_type"),
			Snippet: snippet,
		}
	}
	return sources
}

// Health reports whether the index answers and how many vectors it holds.
// Failures are reported in the result, never returned.
func (s *Searcher) Health(ctx context.Context) Health {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Health{Available: false, Err: err.Error()}
	}
	return Health{Available: true, VectorCount: stats.VectorCount}
}

func str(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
