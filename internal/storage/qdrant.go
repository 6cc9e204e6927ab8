package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// vectorName is the named vector holding chunk embeddings.
	vectorName = "content"

	// idKey stores the chunk ID; Qdrant point IDs must be UUIDs.
	idKey = "chunk_id"

	upsertBatchSize = 100
)

// QdrantConfig configures the connection to a Qdrant server.
type QdrantConfig struct {
	Host       string
	Port       int // gRPC port, usually 6334
	APIKey     string
	UseTLS     bool
	Collection string
}

// QdrantStore keeps vectors in a single Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStore connects to Qdrant and fails fast if it stays unreachable
// after retrying.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
	}

	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return store, nil
}

// newBackoff returns the retry policy shared by health checks and upserts:
// 500ms initial, 10s max interval, 30s total.
func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error { return s.Health(ctx) }, newBackoff(ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// distance maps a metric onto the Qdrant distance enum.
func distance(m Metric) (qdrant.Distance, error) {
	switch m {
	case MetricCosine:
		return qdrant.Distance_Cosine, nil
	case MetricDotProduct:
		return qdrant.Distance_Dot, nil
	case MetricEuclidean:
		return qdrant.Distance_Euclid, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

func metricFromDistance(d qdrant.Distance) Metric {
	switch d {
	case qdrant.Distance_Dot:
		return MetricDotProduct
	case qdrant.Distance_Euclid:
		return MetricEuclidean
	default:
		return MetricCosine
	}
}

// EnsureIndex creates the collection with one named vector when it does not exist.
// Idempotent - safe to call multiple times.
func (s *QdrantStore) EnsureIndex(ctx context.Context, dimension int, metric Metric) (bool, error) {
	dist, err := distance(metric)
	if err != nil {
		return false, err
	}

	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			s.dimension = dimension
			return false, nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(dimension),
				Distance: dist,
			},
		}),
	})
	if err != nil {
		return false, fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "source_type",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return true, fmt.Errorf("failed to create index for field source_type: %w", err)
	}

	s.dimension = dimension
	return true, nil
}

// PointID derives a stable UUID from a chunk ID so re-indexing overwrites
// the same points.
func PointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

// Upsert stores vectors in batches of 100, retrying each batch with backoff.
func (s *QdrantStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	if s.dimension > 0 {
		for i, v := range vectors {
			if len(v.Values) != s.dimension {
				return fmt.Errorf("%w: vector %d (%s) has %d dimensions, expected %d",
					ErrDimensionMismatch, i, v.ID, len(v.Values), s.dimension)
			}
		}
	}

	for i := 0; i < len(vectors); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(vectors))
		batch := vectors[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, v := range batch {
			payload := NormalizeMetadata(v.Metadata)
			payload[idKey] = v.ID

			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(PointID(v.ID)),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(v.Values...),
				}),
				Payload: qdrant.NewValueMap(payload),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if isNotFound(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return s.collectionErr(backoff.Retry(operation, newBackoff(ctx)))
}

// Query performs a similarity search on the named content vector.
func (s *QdrantStore) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	if s.dimension > 0 && len(values) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(values), s.dimension)
	}

	using := vectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(values...),
		Using:          &using,
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", s.collectionErr(err))
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		meta := payloadToMap(r.Payload)
		id, _ := meta[idKey].(string)
		delete(meta, idKey)
		if id == "" {
			id = r.Id.GetUuid()
		}
		matches = append(matches, Match{
			ID:       id,
			Score:    float64(r.Score),
			Metadata: meta,
		})
	}
	return matches, nil
}

// Stats reads the collection's vector configuration and point count.
func (s *QdrantStore) Stats(ctx context.Context) (*Stats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", s.collectionErr(err))
	}

	stats := &Stats{
		Name:        s.collection,
		Metric:      MetricCosine,
		VectorCount: info.GetPointsCount(),
	}
	if params, ok := info.GetConfig().GetParams().GetVectorsConfig().GetParamsMap().GetMap()[vectorName]; ok {
		stats.Dimension = int(params.GetSize())
		stats.Metric = metricFromDistance(params.GetDistance())
	}
	return stats, nil
}

// collectionErr reports a missing collection as ErrIndexNotFound.
func (s *QdrantStore) collectionErr(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s: %v", ErrIndexNotFound, s.collection, err)
	}
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// payloadToMap converts a Qdrant payload back into plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, len(values))
		for i, e := range values {
			out[i] = valueToAny(e)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
