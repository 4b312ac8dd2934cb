package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// DefaultUpsertBatchSize is the number of entries written per backend call.
const DefaultUpsertBatchSize = 10

// UpsertOptions tunes a batched upsert.
type UpsertOptions struct {
	// StartBatch skips batches before this index.
	StartBatch int
}

// UpsertResult lists the batches written by an upsert call.
type UpsertResult struct {
	// Batches is the total number of batches the entries were split into.
	Batches int

	// Succeeded holds the indices of batches written by this call, in order.
	Succeeded []int
}

// VectorIndex is the namespaced client used by ingestion and retrieval.
// It splits writes into bounded batches and classifies backend failures.
// The backend handle is long-lived and shared; no locking is needed since
// every operation is namespace scoped.
type VectorIndex struct {
	store     driven.VectorStore
	batchSize int
}

// NewVectorIndex wraps a backend store. batchSize <= 0 uses DefaultUpsertBatchSize.
func NewVectorIndex(store driven.VectorStore, batchSize int) *VectorIndex {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	return &VectorIndex{store: store, batchSize: batchSize}
}

// BatchSize returns the configured batch size.
func (v *VectorIndex) BatchSize() int {
	return v.batchSize
}

// Batches returns the number of batches n entries are split into.
func (v *VectorIndex) Batches(n int) int {
	return (n + v.batchSize - 1) / v.batchSize
}

// Upsert writes entries into namespace in sequential batches, in entry order.
// The first failing batch stops the call with *domain.IndexWriteError;
// earlier batches stay written.
func (v *VectorIndex) Upsert(
	ctx context.Context,
	namespace string,
	entries []domain.VectorEntry,
	opts UpsertOptions,
) (UpsertResult, error) {
	if namespace == "" {
		return UpsertResult{}, fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}

	result := UpsertResult{Batches: v.Batches(len(entries))}
	if opts.StartBatch < 0 || (opts.StartBatch > 0 && opts.StartBatch >= result.Batches) {
		return result, fmt.Errorf("%w: start batch %d out of range [0,%d)",
			domain.ErrInvalidInput, opts.StartBatch, result.Batches)
	}

	for batch := opts.StartBatch; batch < result.Batches; batch++ {
		if err := ctx.Err(); err != nil {
			return result, &domain.IndexWriteError{
				Namespace:  namespace,
				BatchIndex: batch,
				Succeeded:  result.Succeeded,
				Err:        err,
			}
		}

		start := batch * v.batchSize
		end := min(start+v.batchSize, len(entries))

		if err := v.store.Upsert(ctx, namespace, entries[start:end]); err != nil {
			return result, &domain.IndexWriteError{
				Namespace:  namespace,
				BatchIndex: batch,
				Succeeded:  result.Succeeded,
				Err:        err,
			}
		}
		result.Succeeded = append(result.Succeeded, batch)
	}

	return result, nil
}

// Query returns up to topK matches from namespace in descending score order.
// The store is trusted to scope its results to namespace.
func (v *VectorIndex) Query(
	ctx context.Context,
	namespace string,
	vector []float32,
	topK int,
) ([]domain.VectorMatch, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, nil
	}

	matches, err := v.store.Query(ctx, namespace, vector, topK)
	if err != nil {
		return nil, &domain.IndexQueryError{Namespace: namespace, Err: err}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// DeleteNamespace removes every entry of a document.
func (v *VectorIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}
	if err := v.store.DeleteNamespace(ctx, namespace); err != nil {
		return &domain.IndexWriteError{Namespace: namespace, BatchIndex: -1, Err: err}
	}
	return nil
}

// Count returns the number of entries stored in namespace.
func (v *VectorIndex) Count(ctx context.Context, namespace string) (int, error) {
	n, err := v.store.Count(ctx, namespace)
	if err != nil {
		return 0, &domain.IndexQueryError{Namespace: namespace, Err: err}
	}
	return n, nil
}
