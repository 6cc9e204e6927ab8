package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mike-a-ellis/mentor-index/internal/config"
)

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"cosine", "dotproduct", "euclidean"} {
		m, err := ParseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, Metric(name), m)
	}

	_, err := ParseMetric("manhattan")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"shorter", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 3, "abc"},
		{"zero", "abc", 0, ""},
		{"runes", "héllo wörld", 7, "héllo w"},
		{"negative is unlimited", "abc", -1, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.in, tt.limit))
		})
	}
}

func TestNormalizeMetadata(t *testing.T) {
	in := map[string]any{
		"s":    "x",
		"i":    3,
		"f":    float32(1.5),
		"tags": []string{"a", "b"},
		"nil":  nil,
	}
	got := NormalizeMetadata(in)

	assert.Equal(t, "x", got["s"])
	assert.Equal(t, int64(3), got["i"])
	assert.Equal(t, 1.5, got["f"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.Nil(t, got["nil"])
	assert.Equal(t, 3, in["i"], "input is not modified")
}

func TestStatsString(t *testing.T) {
	s := Stats{Name: "asu-mentor", Dimension: 1536, Metric: MetricCosine, VectorCount: 42}
	assert.Equal(t, "index=asu-mentor dimension=1536 metric=cosine vectors=42", s.String())
}

func newMemoryStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("", "test")
	require.NoError(t, err)
	return store
}

func TestChromemStore_EnsureIndex(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	created, err := store.EnsureIndex(ctx, 3, MetricCosine)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureIndex(ctx, 3, MetricCosine)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = store.EnsureIndex(ctx, 3, MetricEuclidean)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestChromemStore_MissingIndex(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Stats(ctx)
	assert.ErrorIs(t, err, ErrIndexNotFound)

	err = store.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, ErrIndexNotFound)

	assert.NoError(t, store.Health(ctx))
}

func TestChromemStore_UpsertQuery(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.EnsureIndex(ctx, 3, MetricCosine)
	require.NoError(t, err)

	err = store.Upsert(ctx, []Vector{
		{ID: "x", Values: []float32{1, 0, 0}, Metadata: map[string]any{"title": "X", "chunk_index": 0, "tags": []string{"a"}}},
		{ID: "y", Values: []float32{0, 1, 0}, Metadata: map[string]any{"title": "Y"}},
		{ID: "z", Values: []float32{0.9, 0.1, 0}, Metadata: map[string]any{"title": "Z"}},
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "x", matches[0].ID)
	assert.Equal(t, "z", matches[1].ID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, "X", matches[0].Metadata["title"])
	assert.Equal(t, float64(0), matches[0].Metadata["chunk_index"])
	assert.Equal(t, []any{"a"}, matches[0].Metadata["tags"])

	// topK larger than the collection returns everything
	matches, err = store.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.VectorCount)
	assert.Equal(t, 3, stats.Dimension)
}

func TestChromemStore_ReplacesSameID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.EnsureIndex(ctx, 2, MetricCosine)
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{"v": "old"}}}))
	require.NoError(t, store.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{"v": "new"}}}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.VectorCount)

	matches, err := store.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", matches[0].Metadata["v"])
}

func TestChromemStore_DimensionMismatch(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.EnsureIndex(ctx, 3, MetricCosine)
	require.NoError(t, err)

	err = store.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestChromemStore_EmptyQuery(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.EnsureIndex(ctx, 2, MetricCosine)
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(dir, "persist")
	require.NoError(t, err)
	_, err = store.EnsureIndex(ctx, 2, MetricCosine)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0}, Metadata: map[string]any{"title": "A"}}}))
	require.NoError(t, store.Close())

	reopened, err := NewChromemStore(dir, "persist")
	require.NoError(t, err)
	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.VectorCount)
}

func TestChromemStore_DimensionFromFirstUpsert(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(dir, "learn")
	require.NoError(t, err)
	_, err = store.EnsureIndex(ctx, 3, MetricCosine)
	require.NoError(t, err)

	// A reopened store has the collection but no dimension yet.
	reopened, err := NewChromemStore(dir, "learn")
	require.NoError(t, err)
	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Dimension)

	require.NoError(t, reopened.Upsert(ctx, []Vector{{ID: "a", Values: []float32{1, 0, 0}}}))
	stats, err = reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Dimension)

	err = reopened.Upsert(ctx, []Vector{{ID: "b", Values: []float32{1, 0}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = reopened.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestOpen_Chromem(t *testing.T) {
	cfg := config.StoreConfig{Kind: config.StoreChromem, IndexName: "asu-mentor"}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ChromemStore{}, store)
	assert.Equal(t, "chromem (in-memory)", Describe(cfg))

	_, err = Open(context.Background(), config.StoreConfig{Kind: "pinecone"})
	assert.Error(t, err)
}

func TestQdrantCollectionErr(t *testing.T) {
	s := &QdrantStore{collection: "asu-mentor"}

	missing := fmt.Errorf("GetCollection() failed: %w", status.Error(codes.NotFound, "Collection `asu-mentor` doesn't exist!"))
	err := s.collectionErr(missing)
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.Contains(t, err.Error(), "asu-mentor")

	other := status.Error(codes.Unavailable, "connection refused")
	assert.NotErrorIs(t, s.collectionErr(other), ErrIndexNotFound)
	assert.Equal(t, other, s.collectionErr(other))

	assert.NoError(t, s.collectionErr(nil))
	assert.False(t, isNotFound(errors.New("plain")))
}
