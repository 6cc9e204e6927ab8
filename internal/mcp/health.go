package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mike-a-ellis/mentor-index/internal/storage"
)

// HealthResponse is the JSON body of the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"` // healthy, degraded or unhealthy
	Store     string `json:"store"`
	Index     string `json:"index,omitempty"`
	Vectors   uint64 `json:"vectors"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is the part of storage.VectorStore the health endpoint needs.
type HealthChecker interface {
	Health(ctx context.Context) error
	Stats(ctx context.Context) (*storage.Stats, error)
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// An unreachable store is 503; a reachable store without the index is
// degraded with 200.
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}
		code := http.StatusOK

		if err := store.Health(ctx); err != nil {
			resp.Status, resp.Store = "unhealthy", "disconnected"
			code = http.StatusServiceUnavailable
		} else {
			resp.Store = "connected"
			stats, err := store.Stats(ctx)
			switch {
			case err == nil:
				resp.Status = "healthy"
				resp.Index = stats.Name
				resp.Vectors = stats.VectorCount
			case errors.Is(err, storage.ErrIndexNotFound):
				resp.Status = "degraded"
			default:
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Debug("Failed to write health response", "error", err)
		}
	}
}
