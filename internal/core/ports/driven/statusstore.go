package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IngestionStatusStore records the latest ingestion state per document.
type IngestionStatusStore interface {
	// Save replaces the status for status.DocumentKey.
	Save(ctx context.Context, status domain.IngestStatus) error

	// Get returns domain.ErrNotFound if the document was never ingested.
	Get(ctx context.Context, documentKey string) (domain.IngestStatus, error)
}
