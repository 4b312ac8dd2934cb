package services

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// RetryPolicy bounds caller-side ingestion retries.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first. Zero disables retries.
	MaxRetries uint64

	// Base is the first Fibonacci backoff interval.
	Base time.Duration
}

// DefaultRetryPolicy retries three times starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Base: 500 * time.Millisecond}
}

// IngestWithRetry runs Ingest under policy. After an *domain.IndexWriteError
// the next attempt resumes from the failed batch, so batches already
// written are not sent again.
func IngestWithRetry(
	ctx context.Context,
	svc driving.IngestionService,
	documentKey string,
	opts driving.IngestOptions,
	policy RetryPolicy,
) (domain.Chunk, error) {
	if policy.Base <= 0 {
		policy.Base = DefaultRetryPolicy().Base
	}

	var (
		first   domain.Chunk
		attempt int
	)

	backoff := retry.WithMaxRetries(policy.MaxRetries, retry.NewFibonacci(policy.Base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		chunk, err := svc.Ingest(ctx, documentKey, opts)
		if err == nil {
			first = chunk
			return nil
		}

		var writeErr *domain.IndexWriteError
		if errors.As(err, &writeErr) && writeErr.BatchIndex >= 0 {
			opts.StartBatch = writeErr.BatchIndex
		}
		if !IsRetryable(err) {
			return err
		}
		logger.L().Warn().
			Str("component", "ingest").
			Str("document", documentKey).
			Int("attempt", attempt).
			Int("resume_batch", opts.StartBatch).
			Err(err).
			Msg("ingestion attempt failed, retrying")
		return retry.RetryableError(err)
	})

	return first, err
}

// IsRetryable reports whether an ingestion failure may succeed on retry.
// Upstream and storage failures are transient; bad input is not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch domain.ErrorKind(err) {
	case domain.KindFetch, domain.KindEmbedding, domain.KindIndexWrite, domain.KindIndexQuery:
		return !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput)
	default:
		return false
	}
}
