package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	DefaultTopK            = 5
	DefaultMinScore        = 0.7
	DefaultMaxContextChars = 3000

	// ContextSeparator joins matched chunk texts.
	ContextSeparator = "\n"
)

// RetrievalConfig tunes context selection.
type RetrievalConfig struct {
	TopK            int
	MinScore        float64
	MaxContextChars int
}

// DefaultRetrievalConfig returns the retrieval defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:            DefaultTopK,
		MinScore:        DefaultMinScore,
		MaxContextChars: DefaultMaxContextChars,
	}
}

// RetrievalService selects the passages of a document most similar to a query.
type RetrievalService struct {
	embedder driven.EmbeddingService
	index    *VectorIndex
	cfg      RetrievalConfig
	metrics  *metrics.Metrics
}

// NewRetrievalService creates a new retrieval service.
// Non-positive TopK and MaxContextChars fall back to the defaults.
func NewRetrievalService(embedder driven.EmbeddingService, index *VectorIndex, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	return &RetrievalService{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
}

// SetMetrics attaches a metrics collector.
func (s *RetrievalService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Retrieve returns the matches at or above the score threshold in
// descending score order.
func (s *RetrievalService) Retrieve(ctx context.Context, query, documentKey string) ([]domain.VectorMatch, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if documentKey == "" {
		return nil, fmt.Errorf("%w: empty document key", domain.ErrInvalidInput)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		var embedErr *domain.EmbeddingServiceError
		if errors.As(err, &embedErr) {
			return nil, err
		}
		return nil, &domain.EmbeddingServiceError{Provider: s.embedder.ModelName(), Err: err}
	}

	matches, err := s.index.Query(ctx, domain.Namespace(documentKey), vector, s.cfg.TopK)
	if err != nil {
		return nil, err
	}

	qualified := matches[:0]
	for _, m := range matches {
		if m.Score >= s.cfg.MinScore {
			qualified = append(qualified, m)
		}
	}

	logger.L().Debug().
		Str("component", "retrieval").
		Str("document", documentKey).
		Int("matches", len(matches)).
		Int("qualified", len(qualified)).
		Msg("retrieved")

	return qualified, nil
}

// RetrieveContext returns the joined text of the qualifying matches, or ""
// when none qualify.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query, documentKey string) (string, error) {
	matches, err := s.Retrieve(ctx, query, documentKey)
	if err != nil {
		return "", err
	}

	text := JoinContext(matches, s.cfg.MaxContextChars)
	s.metrics.RecordRetrieval(text != "")
	return text, nil
}

// JoinContext concatenates match texts with ContextSeparator, stopping
// before maxChars characters would be exceeded. A first match longer than
// maxChars is cut to maxChars characters.
// Empty texts are skipped.
func JoinContext(matches []domain.VectorMatch, maxChars int) string {
	var b strings.Builder
	used := 0

	for _, m := range matches {
		text := m.Metadata.Text
		if text == "" {
			continue
		}
		n := utf8.RuneCountInString(text)

		if used == 0 && n > maxChars {
			return string([]rune(text)[:maxChars])
		}

		extra := n
		if used > 0 {
			extra += utf8.RuneCountInString(ContextSeparator)
		}
		if used+extra > maxChars {
			break
		}

		if used > 0 {
			b.WriteString(ContextSeparator)
		}
		b.WriteString(text)
		used += extra
	}

	return b.String()
}
