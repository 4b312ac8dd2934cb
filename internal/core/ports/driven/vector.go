package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// VectorStore is a namespaced similarity index.
// Every operation is scoped to one namespace; entries written under one
// namespace are never visible to queries against another.
type VectorStore interface {
	// Upsert writes or overwrites entries keyed by ID within namespace.
	// It is a single backend call; batching is the caller's concern.
	Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error

	// Query returns up to topK entries ranked by descending similarity.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]domain.VectorMatch, error)

	// DeleteNamespace removes every entry in namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Count returns the number of entries in namespace.
	Count(ctx context.Context, namespace string) (int, error)

	// Close releases resources.
	Close() error
}
