package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ChatService answers questions about a document as a stream.
type ChatService interface {
	// StreamAnswer streams the assistant's reply to userText. The chunk
	// channel closes when the answer is complete. The error channel carries
	// at most one error and then closes: *domain.CompletionStreamError when
	// the model failed, or a non-fatal *domain.PersistenceError when the
	// answer was delivered but could not be saved.
	StreamAnswer(
		ctx context.Context,
		conversationID int64,
		prior []domain.Message,
		userText string,
		documentKey string,
	) (<-chan domain.StreamChunk, <-chan error)
}
