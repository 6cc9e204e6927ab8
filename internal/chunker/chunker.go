// Package chunker splits document text into overlapping fixed-size word windows.
package chunker

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mike-a-ellis/mentor-index/internal/content"
)

const (
	// DefaultSize is the window length in words (roughly tokens).
	DefaultSize = 512

	// DefaultOverlap is the number of words repeated at the start of the next window.
	DefaultOverlap = 50
)

// ErrInvalidConfig is returned when size and overlap cannot guarantee progress.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Config holds chunking parameters.
type Config struct {
	Size    int
	Overlap int
}

// DefaultConfig returns the 512/50 configuration used for indexing.
func DefaultConfig() Config {
	return Config{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Validate requires size > 0 and 0 <= overlap < size.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	case c.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	case c.Overlap >= c.Size:
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// Chunk is one window of a document, ready for embedding.
type Chunk struct {
	ID       string         // "<docID>_chunk_<index>"
	Text     string         // Window words joined by single spaces
	Index    int            // Position in document (0, 1, 2...)
	Total    int            // Number of chunks in the parent document
	Metadata map[string]any // Parent metadata plus chunk_index and total_chunks
}

// Split breaks text into windows of size words, each starting size-overlap
// words after the previous one. The window that reaches the end of the text
// is the last one, even if it is shorter than size.
func Split(text string, size, overlap int) ([]string, error) {
	if err := (Config{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	var chunks []string

	for start := 0; start < len(words); start += size - overlap {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
	}

	return chunks, nil
}

// ChunkDocument splits a document and attaches identifiers and metadata to each window.
// The document itself is not modified.
func ChunkDocument(doc content.Document, cfg Config) ([]Chunk, error) {
	texts, err := Split(doc.Text, cfg.Size, cfg.Overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		meta := make(map[string]any, len(doc.Metadata)+2)
		maps.Copy(meta, doc.Metadata)
		meta["chunk_index"] = i
		meta["total_chunks"] = len(texts)

		chunks[i] = Chunk{
			ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
			Text:     text,
			Index:    i,
			Total:    len(texts),
			Metadata: meta,
		}
	}

	return chunks, nil
}
