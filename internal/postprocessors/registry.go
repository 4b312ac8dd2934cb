// Package postprocessors builds text chunkers from configuration.
package postprocessors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// ErrUnknownChunker is returned by Build for unregistered names.
var ErrUnknownChunker = errors.New("unknown chunker")

// BuilderFunc creates a Chunker from the loosely typed options of one
// config section. cfg may be nil.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry maps chunker names to builders. It is not safe for concurrent
// Register calls; fill it at startup.
type Registry struct {
	byName map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]BuilderFunc{}}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, fn BuilderFunc) {
	r.byName[name] = fn
}

func (r *Registry) Build(name string, cfg map[string]any) (driven.Chunker, error) {
	build, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownChunker, name, strings.Join(r.Names(), ", "))
	}
	c, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("chunker %s: %w", name, err)
	}
	return c, nil
}

func (r *Registry) Has(name string) bool {
	return r.byName[name] != nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}
