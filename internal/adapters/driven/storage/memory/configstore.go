package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings for tests and the "memory" storage backend.
// Values live only as long as the process.
type ConfigStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{data: map[string]any{}}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	return v, ok
}

func (s *ConfigStore) raw(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string { return values.String(s.raw(key)) }
func (s *ConfigStore) GetInt(key string) int       { return values.Int(s.raw(key)) }
func (s *ConfigStore) GetFloat(key string) float64 { return values.Float(s.raw(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return values.Bool(s.raw(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

func (s *ConfigStore) Save() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
