// Package store provides the vector index implementations. The index is
// the single source of truth for "already indexed": once a record ID is
// upserted it is never overwritten.
package store

import (
	"context"
	"fmt"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

// VectorIndex is the capability the pipeline needs from a vector store:
// upsert-by-id-with-metadata, fetch-existence-by-id, and a filtered top-K
// similarity query. All operations are scoped to a namespace.
type VectorIndex interface {
	// Upsert writes the records into the namespace. Existing IDs are left
	// untouched.
	Upsert(ctx context.Context, records []models.VectorRecord, namespace string) error

	// FetchIDs reports which of the given IDs already exist in the namespace.
	FetchIDs(ctx context.Context, ids []string, namespace string) (map[string]struct{}, error)

	// Query returns up to topK matches for the vector, restricted to one
	// channel so cross-channel leakage is impossible, ordered by descending
	// score.
	Query(ctx context.Context, vector []float32, namespace, channelID string, topK int) ([]models.SearchResult, error)

	Close() error
}

// New builds the vector index selected by cfg.VectorBackend.
func New(ctx context.Context, cfg *config.Config) (VectorIndex, error) {
	switch cfg.VectorBackend {
	case config.BackendSQLite:
		return NewSQLiteIndex(cfg.SQLitePath)
	case config.BackendPostgres:
		return NewPgvectorIndex(ctx, cfg.PostgresDSN, cfg.EmbeddingDim)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
