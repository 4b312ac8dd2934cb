package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	// StartBatch skips upsert batches before this index. Callers set it from
	// IndexWriteError.BatchIndex when retrying a partially written document.
	StartBatch int

	// Reindex clears the document's namespace before the first batch is
	// written, dropping entries left by an earlier version of the file.
	// It has no effect when StartBatch is set.
	Reindex bool
}

// IngestionService indexes uploaded documents into the vector store.
type IngestionService interface {
	// Ingest fetches, chunks, embeds and upserts the document stored under
	// documentKey. It returns the first chunk produced as a completion signal.
	// Failures are *domain.FetchError, *domain.ChunkingError,
	// *domain.EmbeddingServiceError or *domain.IndexWriteError. No retries
	// happen inside; the caller owns the retry policy.
	Ingest(ctx context.Context, documentKey string, opts IngestOptions) (domain.Chunk, error)

	// Status returns the latest ingestion status for documentKey.
	Status(ctx context.Context, documentKey string) (domain.IngestStatus, error)
}
