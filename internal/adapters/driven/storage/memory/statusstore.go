package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.IngestionStatusStore = (*StatusStore)(nil)

// StatusStore keeps the latest ingestion status per document in memory.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.IngestStatus
	history  map[string][]domain.IngestState
}

// NewStatusStore creates a new in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]domain.IngestStatus),
		history:  make(map[string][]domain.IngestState),
	}
}

// Save replaces the status for the document.
func (s *StatusStore) Save(_ context.Context, status domain.IngestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocumentKey] = status
	s.history[status.DocumentKey] = append(s.history[status.DocumentKey], status.State)
	return nil
}

// Get retrieves the latest status for documentKey.
func (s *StatusStore) Get(_ context.Context, documentKey string) (domain.IngestStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[documentKey]
	if !ok {
		return domain.IngestStatus{}, domain.ErrNotFound
	}
	return status, nil
}

// History returns every state saved for documentKey in order.
func (s *StatusStore) History(documentKey string) []domain.IngestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestState, len(s.history[documentKey]))
	copy(out, s.history[documentKey])
	return out
}
