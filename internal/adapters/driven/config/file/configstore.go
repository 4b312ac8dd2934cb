package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// DirName is the directory created under the user's home for config and data.
const DirName = ".docchat"

// fileName is the config file inside the config directory.
const fileName = "config.toml"

// DefaultDir returns ~/.docchat.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// ConfigStore keeps settings in config.toml. Values are held under dotted
// keys and written back as nested tables, so "retrieval.top_k" lands in a
// [retrieval] section. Every Set rewrites the file.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// NewConfigStore opens configDir/config.toml, creating the directory if
// needed. An empty configDir means ~/.docchat. A missing file is an empty
// configuration; an unparsable one is an error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(configDir, fileName)}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return s, nil
}

// Get returns the value as decoded from TOML: int64, float64, bool,
// string, or whatever a caller passed to Set.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	return v, ok
}

func (s *ConfigStore) lookup(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string { return values.String(s.lookup(key)) }
func (s *ConfigStore) GetInt(key string) int       { return values.Int(s.lookup(key)) }
func (s *ConfigStore) GetFloat(key string) float64 { return values.Float(s.lookup(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return values.Bool(s.lookup(key)) }

// Set rewrites the file with value under key. Memory changes only after
// the write succeeds.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.data)
	next[key] = value
	if err := writeTOML(s.path, next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// Keys returns every stored key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return writeTOML(s.path, s.data)
}

func (s *ConfigStore) Path() string { return s.path }

// writeTOML replaces path through a renamed temporary file with mode 0600,
// so readers never see a partial file holding API keys.
func writeTOML(path string, flat map[string]any) error {
	encoded, err := toml.Marshal(nestMap(flat))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+fileName+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(encoded)
	err = errors.Join(err, tmp.Chmod(0600), tmp.Close())
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *ConfigStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	s.data = flattenMap(tree, "")
	return nil
}

// flattenMap turns nested tables into dotted keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			maps.Copy(out, flattenMap(nested, key))
			continue
		}
		out[key] = value
	}
	return out
}

// nestMap is the inverse of flattenMap. A key that is both a value and a
// table prefix keeps the value under its full dotted name.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		if table, ok := tableFor(root, parts[:len(parts)-1]); ok {
			table[parts[len(parts)-1]] = flat[key]
		} else {
			root[key] = flat[key]
		}
	}
	return root
}

// tableFor walks or creates the nested tables named by path. It fails when
// a path element already holds a plain value.
func tableFor(root map[string]any, path []string) (map[string]any, bool) {
	node := root
	for _, part := range path {
		child, exists := node[part]
		if !exists {
			next := make(map[string]any)
			node[part] = next
			node = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}
