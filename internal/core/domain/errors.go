package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Adapters wrap them with detail.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown AI or storage backend name.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrConfigNotFound indicates a required configuration key is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrEmptyDocument indicates a document produced no extractable text.
	ErrEmptyDocument = errors.New("document has no text")
)

// Error kinds reported to callers that need to branch on failure class
// without importing the concrete types.
const (
	KindFetch            = "fetch"
	KindChunking         = "chunking"
	KindEmbedding        = "embedding"
	KindIndexWrite       = "index_write"
	KindIndexQuery       = "index_query"
	KindCompletionStream = "completion_stream"
	KindPersistence      = "persistence"
	KindNotFound         = "not_found"
	KindInvalidInput     = "invalid_input"
	KindInternal         = "internal"
)

// FetchError reports that a document could not be downloaded or parsed into pages.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch document %q: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ChunkingError reports malformed page text.
type ChunkingError struct {
	Page int
	Err  error
}

func (e *ChunkingError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("chunk page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("chunk document: %v", e.Err)
}

func (e *ChunkingError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a failed or invalid upstream embedding call.
type EmbeddingServiceError struct {
	Provider string
	Err      error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// IndexWriteError reports the first upsert batch that failed.
// Batches listed in Succeeded were written and are not rolled back;
// callers resume from BatchIndex.
type IndexWriteError struct {
	Namespace  string
	BatchIndex int
	Succeeded  []int
	Err        error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("upsert batch %d into namespace %q: %v", e.BatchIndex, e.Namespace, e.Err)
}

func (e *IndexWriteError) Unwrap() error { return e.Err }

// IndexQueryError reports a failed similarity search.
type IndexQueryError struct {
	Namespace string
	Err       error
}

func (e *IndexQueryError) Error() string {
	return fmt.Sprintf("query namespace %q: %v", e.Namespace, e.Err)
}

func (e *IndexQueryError) Unwrap() error { return e.Err }

// CompletionStreamError reports a model stream that failed mid-flight.
// Emitted counts the increments already delivered before the failure.
type CompletionStreamError struct {
	Emitted int
	Err     error
}

func (e *CompletionStreamError) Error() string {
	return fmt.Sprintf("completion stream failed after %d chunks: %v", e.Emitted, e.Err)
}

func (e *CompletionStreamError) Unwrap() error { return e.Err }

// PersistenceError reports that a finished exchange could not be saved.
// The answer was delivered; only durability failed.
type PersistenceError struct {
	ConversationID int64
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist messages for conversation %d: %v", e.ConversationID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	var (
		fetchErr   *FetchError
		chunkErr   *ChunkingError
		embedErr   *EmbeddingServiceError
		writeErr   *IndexWriteError
		queryErr   *IndexQueryError
		streamErr  *CompletionStreamError
		persistErr *PersistenceError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &persistErr):
		return KindPersistence
	case errors.As(err, &streamErr):
		return KindCompletionStream
	case errors.As(err, &writeErr):
		return KindIndexWrite
	case errors.As(err, &queryErr):
		return KindIndexQuery
	case errors.As(err, &embedErr):
		return KindEmbedding
	case errors.As(err, &chunkErr):
		return KindChunking
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// IsFatal reports whether err means the operation did not succeed.
// A PersistenceError is a degradation of an otherwise successful turn.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var persistErr *PersistenceError
	return !errors.As(err, &persistErr)
}
