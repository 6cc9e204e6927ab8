package storage

import (
	"context"
	"fmt"

	"github.com/mike-a-ellis/mentor-index/internal/config"
)

// Open returns the vector store selected by cfg.Kind.
func Open(ctx context.Context, cfg config.StoreConfig) (VectorStore, error) {
	switch cfg.Kind {
	case config.StoreQdrant:
		store, err := NewQdrantStore(ctx, QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantTLS,
			Collection: cfg.IndexName,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreChromem:
		store, err := NewChromemStore(cfg.ChromemPath, cfg.IndexName)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown vector store %q", cfg.Kind)
}

// Describe returns a human-readable location for cfg's store.
func Describe(cfg config.StoreConfig) string {
	if cfg.Kind == config.StoreChromem {
		if cfg.ChromemPath == "" {
			return "chromem (in-memory)"
		}
		return "chromem at " + cfg.ChromemPath
	}
	return fmt.Sprintf("qdrant at %s:%d", cfg.QdrantHost, cfg.QdrantPort)
}
