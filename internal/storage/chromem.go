package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

var errNoEmbeddingFunc = errors.New("chromem store only accepts precomputed embeddings")

// ChromemStore is an embedded vector index backed by chromem-go. It needs no
// server and is used for local runs and tests. chromem only supports cosine
// similarity.
type ChromemStore struct {
	db         *chromem.DB
	collection string

	mu        sync.RWMutex
	coll      *chromem.Collection
	dimension int
}

// NewChromemStore opens a persistent database at path, or an in-memory one
// when path is empty.
func NewChromemStore(path, collection string) (*ChromemStore, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: open chromem db at %s: %v", ErrStoreUnreachable, path, err)
		}
	}

	return &ChromemStore{
		db:         db,
		collection: collection,
		coll:       db.GetCollection(collection, noEmbedding),
	}, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// Health always succeeds; the database is in-process.
func (s *ChromemStore) Health(context.Context) error {
	return nil
}

// EnsureIndex creates the collection when missing.
func (s *ChromemStore) EnsureIndex(_ context.Context, dimension int, metric Metric) (bool, error) {
	if metric != MetricCosine {
		return false, fmt.Errorf("%w: chromem supports cosine only, got %q", ErrUnknownMetric, metric)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dimension = dimension
	if s.coll != nil {
		return false, nil
	}

	coll, err := s.db.CreateCollection(s.collection, map[string]string{"metric": string(metric)}, noEmbedding)
	if err != nil {
		return false, fmt.Errorf("failed to create collection: %w", err)
	}
	s.coll = coll
	return true, nil
}

// collectionOrErr returns the collection and the known dimension (0 if unknown).
func (s *ChromemStore) collectionOrErr() (*chromem.Collection, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrIndexNotFound, s.collection)
	}
	return s.coll, s.dimension, nil
}

// Upsert adds vectors, replacing documents with the same ID.
func (s *ChromemStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	coll, dimension, err := s.collectionOrErr()
	if err != nil {
		return err
	}
	if dimension == 0 {
		dimension = len(vectors[0].Values)
	}

	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		if len(v.Values) != dimension {
			return fmt.Errorf("%w: vector %d (%s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, v.ID, len(v.Values), dimension)
		}
		meta, err := encodeMetadata(v.Metadata)
		if err != nil {
			return fmt.Errorf("vector %s: %w", v.ID, err)
		}
		text, _ := v.Metadata["text"].(string)
		docs[i] = chromem.Document{
			ID:        v.ID,
			Metadata:  meta,
			Embedding: v.Values,
			Content:   text,
		}
	}

	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	s.mu.Lock()
	if s.dimension == 0 {
		s.dimension = dimension
	}
	s.mu.Unlock()
	return nil
}

// Query returns up to topK nearest documents. Asking for more than the
// collection holds returns everything.
func (s *ChromemStore) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	coll, dimension, err := s.collectionOrErr()
	if err != nil {
		return nil, err
	}
	if dimension > 0 && len(values) != dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(values), dimension)
	}

	n := min(topK, coll.Count())
	if n <= 0 {
		return []Match{}, nil
	}

	results, err := coll.QueryEmbedding(ctx, values, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Metadata: decodeMetadata(r.Metadata),
		}
	}
	return matches, nil
}

// Stats reports the collection size. Dimension is 0 until EnsureIndex or
// the first Upsert has run in this process.
func (s *ChromemStore) Stats(context.Context) (*Stats, error) {
	coll, dimension, err := s.collectionOrErr()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Name:        s.collection,
		Dimension:   dimension,
		Metric:      MetricCosine,
		VectorCount: uint64(coll.Count()),
	}, nil
}

// Close is a no-op; persistent databases write through on every add.
func (s *ChromemStore) Close() error {
	return nil
}

// encodeMetadata stores each value as JSON since chromem metadata is
// string-valued.
func encodeMetadata(meta map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(meta))
	for k, v := range NormalizeMetadata(meta) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode metadata %q: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

func decodeMetadata(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, raw := range meta {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			out[k] = raw
			continue
		}
		out[k] = v
	}
	return out
}
