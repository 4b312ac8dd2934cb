package postprocessors

import (
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/postprocessors/chunker"
)

// DefaultChunker is the sliding window chunker used for ingestion.
const DefaultChunker = "chunker"

// RegisterDefaults adds the built-in chunkers to r.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultChunker, buildWindowChunker)
}

// buildWindowChunker reads "chunk_size" and "overlap" in runes. A missing or
// zero chunk_size and a missing overlap keep the chunker defaults.
func buildWindowChunker(cfg map[string]any) (driven.Chunker, error) {
	w := chunker.Default().Window()
	if n := values.Int(cfg["chunk_size"]); n > 0 {
		w.Size = n
	}
	if v, ok := cfg["overlap"]; ok {
		w.Overlap = values.Int(v)
	}
	c, err := chunker.New(w)
	if err != nil {
		return nil, err
	}
	return c, nil
}
