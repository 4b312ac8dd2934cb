package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// RetrievalService builds prompt context from a document's vector namespace.
type RetrievalService interface {
	// RetrieveContext returns the concatenated text of the best matches for
	// query, or "" when nothing in the document is similar enough.
	RetrieveContext(ctx context.Context, query, documentKey string) (string, error)

	// Retrieve returns the matches that RetrieveContext would use.
	Retrieve(ctx context.Context, query, documentKey string) ([]domain.VectorMatch, error)
}
