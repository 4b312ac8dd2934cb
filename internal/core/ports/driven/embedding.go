package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations must fail rather than return an empty or all-zero
// vector: a wrong vector silently corrupts the index. Upstream failures are
// reported as *domain.EmbeddingServiceError.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 until the first response when
	// the model is not in the adapter's table.
	Dimensions() int

	ModelName() string

	// Ping embeds a short sample string.
	Ping(ctx context.Context) error

	Close() error
}
