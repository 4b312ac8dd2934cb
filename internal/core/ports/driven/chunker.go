package driven

import (
	"iter"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Chunker splits page text into overlapping, content-addressed chunks.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk lazily splits one page. The sequence is finite, deterministic
	// and may be iterated more than once.
	Chunk(pageText string, pageNumber int) iter.Seq[domain.Chunk]

	// ChunkPage validates the page text and returns all of its chunks.
	// Malformed text is reported as *domain.ChunkingError.
	ChunkPage(page domain.Page) ([]domain.Chunk, error)
}
