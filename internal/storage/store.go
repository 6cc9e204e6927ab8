// Package storage provides the vector index the pipeline uploads chunks to.
package storage

import (
	"context"
	"fmt"
)

// Metric is the similarity function an index is created with.
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricDotProduct Metric = "dotproduct"
	MetricEuclidean  Metric = "euclidean"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricCosine, MetricDotProduct, MetricEuclidean:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// MetadataTextLimit is the number of characters of chunk text kept in metadata.
const MetadataTextLimit = 1000

// Vector is one (id, values, metadata) entry in the index.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a query hit ordered by descending score.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Stats describes an index.
type Stats struct {
	Name        string
	Dimension   int
	Metric      Metric
	VectorCount uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("index=%s dimension=%d metric=%s vectors=%d", s.Name, s.Dimension, s.Metric, s.VectorCount)
}

// VectorStore is a named vector index.
type VectorStore interface {
	// Health reports whether the backing service is reachable.
	Health(ctx context.Context) error
	// EnsureIndex creates the index if absent and reports whether it did.
	EnsureIndex(ctx context.Context, dimension int, metric Metric) (bool, error)
	// Upsert writes vectors, replacing entries with the same ID.
	Upsert(ctx context.Context, vectors []Vector) error
	// Query returns the topK nearest vectors.
	Query(ctx context.Context, values []float32, topK int) ([]Match, error)
	// Stats describes the index.
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// TruncateText cuts s to at most limit characters (runes).
func TruncateText(s string, limit int) string {
	if limit < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// normalizeValue converts metadata values to the small set of types both
// stores can encode: string, bool, int64, float64 and []any of those.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return fmt.Sprint(x)
	}
}

// NormalizeMetadata returns a copy of meta with every value normalized.
func NormalizeMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = normalizeValue(v)
	}
	return out
}
