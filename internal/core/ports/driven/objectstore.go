package driven

import (
	"context"
	"io"
)

// ObjectStore holds uploaded source files keyed by storage key.
type ObjectStore interface {
	// Get returns the full object. Missing keys return domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the object read from r under key.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// URL returns a location where the object can be fetched by a client.
	URL(key string) string
}
