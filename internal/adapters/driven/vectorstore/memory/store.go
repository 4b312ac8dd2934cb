// Package memory provides an in-process vector store using brute-force
// cosine similarity.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps entries per namespace in memory.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.VectorEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]map[string]domain.VectorEntry),
	}
}

// Upsert writes or overwrites entries keyed by ID.
func (s *Store) Upsert(_ context.Context, namespace string, entries []domain.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]domain.VectorEntry)
		s.namespaces[namespace] = ns
	}
	for _, e := range entries {
		e.Vector = slices.Clone(e.Vector)
		ns[e.ID] = e
	}
	return nil
}

// Query scores every entry in namespace against vector.
func (s *Store) Query(_ context.Context, namespace string, vector []float32, topK int) ([]domain.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	matches := make([]domain.VectorMatch, 0, len(ns))
	for _, e := range ns {
		matches = append(matches, domain.VectorMatch{
			ID:       e.ID,
			Score:    vectorstore.Cosine(vector, e.Vector),
			Metadata: e.Metadata,
		})
	}
	return vectorstore.TopK(matches, topK), nil
}

// DeleteNamespace drops every entry in namespace.
func (s *Store) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

// Count returns the number of entries in namespace.
func (s *Store) Count(_ context.Context, namespace string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace]), nil
}

// Get returns a stored entry.
func (s *Store) Get(namespace, id string) (domain.VectorEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.namespaces[namespace][id]
	return e, ok
}

// IDs returns the sorted entry ids of namespace.
func (s *Store) IDs(namespace string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.namespaces[namespace]))
	for id := range s.namespaces[namespace] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
