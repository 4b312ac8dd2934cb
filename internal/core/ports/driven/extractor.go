package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// PageExtractor turns raw file bytes into per-page text.
type PageExtractor interface {
	// Extract returns the pages in order. Page numbers start at 1.
	Extract(ctx context.Context, content []byte) ([]domain.Page, error)
}
