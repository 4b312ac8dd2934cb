package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vsmemory "github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

func makeEntries(n int) []domain.VectorEntry {
	entries := make([]domain.VectorEntry, n)
	for i := range entries {
		text := fmt.Sprintf("chunk %d", i)
		entries[i] = domain.VectorEntry{
			ID:       domain.ContentHash(text),
			Vector:   []float32{float32(i + 1), 1},
			Metadata: domain.ChunkMetadata{PageNumber: 1, Text: text},
		}
	}
	return entries
}

func TestVectorIndex_Upsert_Batches(t *testing.T) {
	store := newFlakyVectorStore()
	index := NewVectorIndex(store, 10)

	result, err := index.Upsert(context.Background(), "doc", makeEntries(23), UpsertOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, []int{0, 1, 2}, result.Succeeded)
	assert.Equal(t, 3, store.calls())

	n, err := index.Count(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, 23, n)
}

func TestVectorIndex_Upsert_FailureStopsAndKeepsEarlierBatches(t *testing.T) {
	store := newFlakyVectorStore(2)
	index := NewVectorIndex(store, 10)
	entries := makeEntries(23)

	result, err := index.Upsert(context.Background(), "doc", entries, UpsertOptions{})

	var writeErr *domain.IndexWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 1, writeErr.BatchIndex)
	assert.Equal(t, []int{0}, writeErr.Succeeded)
	assert.Equal(t, "doc", writeErr.Namespace)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 2, store.calls(), "no call after the failed batch")
	assert.Equal(t, []int{0}, result.Succeeded)

	for _, e := range entries[:10] {
		_, ok := store.Get("doc", e.ID)
		assert.True(t, ok, "batch 0 entry %s should be present", e.ID)
	}
	for _, e := range entries[10:] {
		_, ok := store.Get("doc", e.ID)
		assert.False(t, ok)
	}

	// Resume from the failed batch
	result, err = index.Upsert(context.Background(), "doc", entries, UpsertOptions{StartBatch: writeErr.BatchIndex})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result.Succeeded)

	n, _ := index.Count(context.Background(), "doc")
	assert.Equal(t, 23, n)
}

func TestVectorIndex_Upsert_Validation(t *testing.T) {
	index := NewVectorIndex(vsmemory.NewStore(), 0)
	assert.Equal(t, DefaultUpsertBatchSize, index.BatchSize())

	_, err := index.Upsert(context.Background(), "", makeEntries(1), UpsertOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = index.Upsert(context.Background(), "doc", makeEntries(5), UpsertOptions{StartBatch: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = index.Upsert(context.Background(), "doc", makeEntries(5), UpsertOptions{StartBatch: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	result, err := index.Upsert(context.Background(), "doc", nil, UpsertOptions{})
	require.NoError(t, err)
	assert.Zero(t, result.Batches)
}

func TestVectorIndex_Upsert_CancelledContext(t *testing.T) {
	store := newFlakyVectorStore()
	index := NewVectorIndex(store, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := index.Upsert(ctx, "doc", makeEntries(12), UpsertOptions{})

	var writeErr *domain.IndexWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 0, writeErr.BatchIndex)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.calls())
}

func TestVectorIndex_Query(t *testing.T) {
	store := newFlakyVectorStore()
	index := NewVectorIndex(store, 10)
	ctx := context.Background()

	require.NoError(t, store.Store.Upsert(ctx, "doc", []domain.VectorEntry{
		{ID: "same", Vector: []float32{1, 0}},
		{ID: "close", Vector: []float32{1, 0.2}},
		{ID: "far", Vector: []float32{0, 1}},
	}))

	matches, err := index.Query(ctx, "doc", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "same", matches[0].ID)
	assert.Equal(t, "close", matches[1].ID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	none, err := index.Query(ctx, "doc", []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = index.Query(ctx, "", []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	store.queryErr = errBackend
	_, err = index.Query(ctx, "doc", []float32{1, 0}, 1)
	var queryErr *domain.IndexQueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "doc", queryErr.Namespace)
	assert.True(t, errors.Is(err, errBackend))
}

func TestVectorIndex_NamespaceIsolation(t *testing.T) {
	index := NewVectorIndex(vsmemory.NewStore(), 10)
	ctx := context.Background()

	nsA := domain.Namespace("uploads/a.pdf")
	nsB := domain.Namespace("uploads/b.pdf")
	_, err := index.Upsert(ctx, nsA, makeEntries(3), UpsertOptions{})
	require.NoError(t, err)

	matches, err := index.Query(ctx, nsB, []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, index.DeleteNamespace(ctx, nsA))
	n, err := index.Count(ctx, nsA)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, index.DeleteNamespace(ctx, ""), domain.ErrInvalidInput)
}
