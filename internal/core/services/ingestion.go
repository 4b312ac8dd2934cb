package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultIngestConcurrency bounds parallel embedding calls per document.
const DefaultIngestConcurrency = 4

// IngestionConfig tunes the embedding fan-out.
type IngestionConfig struct {
	// Concurrency is the maximum number of in-flight embedding calls.
	Concurrency int

	// RateLimit caps embedding calls per second. Zero means unlimited.
	RateLimit float64
}

// IngestionService turns an uploaded document into namespaced vectors.
// It walks Fetched, Chunked, Embedded, Upserted and Done, recording each
// transition; any failure ends in Failed. It never retries.
type IngestionService struct {
	objects   driven.ObjectStore
	extractor driven.PageExtractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     *VectorIndex
	statuses  driven.IngestionStatusStore
	metrics   *metrics.Metrics

	concurrency int
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewIngestionService creates a new ingestion pipeline.
// statuses may be nil, in which case progress is not recorded.
// embedder may be nil, in which case Ingest fails with ErrEmbeddingUnavailable.
func NewIngestionService(
	objects driven.ObjectStore,
	extractor driven.PageExtractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index *VectorIndex,
	statuses driven.IngestionStatusStore,
	cfg IngestionConfig,
) *IngestionService {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultIngestConcurrency
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	return &IngestionService{
		objects:     objects,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		statuses:    statuses,
		concurrency: concurrency,
		limiter:     limiter,
		now:         time.Now,
	}
}

// SetMetrics attaches a metrics collector.
func (s *IngestionService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Ingest fetches, chunks, embeds and upserts one document and returns the
// first chunk in page order.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IngestionService) Ingest(
	ctx context.Context,
	documentKey string,
	opts driving.IngestOptions,
) (domain.Chunk, error) {
	started := s.now()
	log := logger.With("ingest").With().Str("document", documentKey).Logger()

	status := domain.IngestStatus{
		DocumentKey: documentKey,
		Namespace:   domain.Namespace(documentKey),
		FailedBatch: -1,
	}
	s.transition(ctx, &status, domain.IngestStatePending)

	fail := func(err error) (domain.Chunk, error) {
		var writeErr *domain.IndexWriteError
		if errors.As(err, &writeErr) {
			status.FailedBatch = writeErr.BatchIndex
		}
		status.Error = err.Error()
		s.transition(ctx, &status, domain.IngestStateFailed)
		s.metrics.RecordIngest("failed", 0, s.now().Sub(started))
		log.Error().Err(err).Str("kind", domain.ErrorKind(err)).Msg("ingestion failed")
		return domain.Chunk{}, err
	}

	if documentKey == "" {
		return fail(fmt.Errorf("%w: empty document key", domain.ErrInvalidInput))
	}
	if s.embedder == nil {
		return fail(domain.ErrEmbeddingUnavailable)
	}

	// 1. Fetch the object and extract its pages
	content, err := s.objects.Get(ctx, documentKey)
	if err != nil {
		return fail(&domain.FetchError{Key: documentKey, Err: err})
	}
	pages, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return fail(&domain.FetchError{Key: documentKey, Err: err})
	}
	s.transition(ctx, &status, domain.IngestStateFetched)
	log.Debug().Int("pages", len(pages)).Int("bytes", len(content)).Msg("fetched")

	// 2. Chunk every page
	chunks, err := s.chunkPages(ctx, pages)
	if err != nil {
		return fail(err)
	}
	if len(chunks) == 0 {
		return fail(&domain.ChunkingError{Err: domain.ErrEmptyDocument})
	}
	status.Chunks = len(chunks)
	status.Batches = s.index.Batches(len(chunks))
	s.transition(ctx, &status, domain.IngestStateChunked)

	// 3. Embed chunks with bounded, paced fan-out
	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return fail(err)
	}
	s.transition(ctx, &status, domain.IngestStateEmbedded)

	// 4. Upsert in chunk order
	if opts.Reindex && opts.StartBatch == 0 {
		if err := s.index.DeleteNamespace(ctx, status.Namespace); err != nil {
			return fail(err)
		}
		log.Debug().Str("namespace", status.Namespace).Msg("cleared namespace")
	}
	entries := make([]domain.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.VectorEntry{
			ID:       c.ID,
			Vector:   vectors[i],
			Metadata: c.Metadata(),
		}
	}
	result, err := s.index.Upsert(ctx, status.Namespace, entries, UpsertOptions{StartBatch: opts.StartBatch})
	if err != nil {
		return fail(err)
	}
	s.transition(ctx, &status, domain.IngestStateUpserted)

	// 5. Done
	s.transition(ctx, &status, domain.IngestStateDone)
	s.metrics.RecordIngest("done", len(chunks), s.now().Sub(started))
	log.Info().
		Int("chunks", len(chunks)).
		Int("batches_written", len(result.Succeeded)).
		Str("namespace", status.Namespace).
		Dur("took", s.now().Sub(started)).
		Msg("ingested")

	return chunks[0], nil
}

// Status returns the latest recorded status. For a finished document,
// Vectors is the live entry count of its namespace.
func (s *IngestionService) Status(ctx context.Context, documentKey string) (domain.IngestStatus, error) {
	if s.statuses == nil {
		return domain.IngestStatus{}, domain.ErrNotFound
	}
	status, err := s.statuses.Get(ctx, documentKey)
	if err != nil || !status.Ready() {
		return status, err
	}

	n, err := s.index.Count(ctx, status.Namespace)
	if err != nil {
		return domain.IngestStatus{}, err
	}
	status.Vectors = n
	return status, nil
}

// chunkPages chunks pages concurrently and reassembles them in page order.
func (s *IngestionService) chunkPages(ctx context.Context, pages []domain.Page) ([]domain.Chunk, error) {
	perPage := make([][]domain.Chunk, len(pages))

	g, _ := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			chunks, err := s.chunker.ChunkPage(page)
			if err != nil {
				var chunkErr *domain.ChunkingError
				if errors.As(err, &chunkErr) {
					return err
				}
				return &domain.ChunkingError{Page: page.Number, Err: err}
			}
			perPage[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, pc := range perPage {
		chunks = append(chunks, pc...)
	}
	return chunks, nil
}

// embedChunks embeds every chunk, preserving chunk order in the result.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return fmt.Errorf("wait for embedding slot: %w", err)
			}
			vec, err := s.embedder.Embed(gctx, c.Text)
			if err != nil {
				return s.embeddingError(err)
			}
			if len(vec) == 0 {
				return s.embeddingError(fmt.Errorf("empty vector for chunk %s", c.ID))
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (s *IngestionService) embeddingError(err error) error {
	var embedErr *domain.EmbeddingServiceError
	if errors.As(err, &embedErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.EmbeddingServiceError{Provider: s.embedder.ModelName(), Err: err}
}

// transition records a state change. Status persistence is best effort.
func (s *IngestionService) transition(ctx context.Context, status *domain.IngestStatus, state domain.IngestState) {
	status.State = state
	status.UpdatedAt = s.now().UTC()
	if s.statuses == nil {
		return
	}
	// A cancelled request still records its terminal state
	saveCtx := context.WithoutCancel(ctx)
	if err := s.statuses.Save(saveCtx, *status); err != nil {
		logger.Warn("record ingestion status %s for %s: %v", state, status.DocumentKey, err)
	}
}
