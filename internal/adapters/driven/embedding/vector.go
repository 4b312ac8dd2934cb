// Package embedding holds helpers shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Vector validation errors.
var (
	ErrEmptyVector       = errors.New("empty embedding vector")
	ErrZeroVector        = errors.New("all-zero embedding vector")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Batcher is the batch half of driven.EmbeddingService.
type Batcher interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// One embeds a single text through b.
func One(ctx context.Context, b Batcher, text string) ([]float32, error) {
	out, err := b.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("got %d embeddings for 1 input", len(out))
	}
	return out[0], nil
}

// ToFloat32 converts an API vector to the index representation.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Validate rejects vectors that would silently corrupt the index.
func Validate(v []float32) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	for _, x := range v {
		if x != 0 {
			return nil
		}
	}
	return ErrZeroVector
}

// Wrap reports err as an upstream embedding failure of provider.
// Errors that already carry that type are returned unchanged.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var embedErr *domain.EmbeddingServiceError
	if errors.As(err, &embedErr) {
		return err
	}
	return &domain.EmbeddingServiceError{Provider: provider, Err: err}
}

// Dims is the vector length of one model. Zero means unknown until the
// first vector is seen; after that every vector must match.
type Dims struct {
	n atomic.Int64
}

// NewDims starts at n, which may be zero.
func NewDims(n int) *Dims {
	d := &Dims{}
	d.n.Store(int64(n))
	return d
}

// Get returns the known length or zero.
func (d *Dims) Get() int {
	return int(d.n.Load())
}

// Check fixes the length on first use and rejects vectors that differ.
func (d *Dims) Check(v []float32) error {
	got := int64(len(v))
	if d.n.CompareAndSwap(0, got) {
		return nil
	}
	if want := d.n.Load(); want != got {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, got, want)
	}
	return nil
}

// Convert validates raw API vectors and returns them for the index. Any
// failure is wrapped as an upstream error of provider.
func Convert(provider string, dims *Dims, raw [][]float64) ([][]float32, error) {
	out := make([][]float32, len(raw))
	for i, r := range raw {
		v := ToFloat32(r)
		err := Validate(v)
		if err == nil {
			err = dims.Check(v)
		}
		if err != nil {
			return nil, Wrap(provider, fmt.Errorf("input %d: %w", i, err))
		}
		out[i] = v
	}
	return out, nil
}

// Lookup finds model in a dimension table, ignoring any ":tag" suffix and
// "models/" prefix. Unknown models give zero.
func Lookup(table map[string]int, model string) int {
	model = strings.TrimPrefix(model, "models/")
	if n, ok := table[model]; ok {
		return n
	}
	if base, _, ok := strings.Cut(model, ":"); ok {
		return table[base]
	}
	return 0
}
