package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// ErrUnknownPrompt is returned for names missing from driven.DefaultPrompts.
var ErrUnknownPrompt = errors.New("unknown prompt")

// PromptStore reads templates from <dir>/<name>.txt. The first Load writes
// the defaults and a README into dir so users have something to edit.
// A file that is missing, unreadable or has lost its context placeholder
// is replaced by the built-in default.
type PromptStore struct {
	dir string

	mu     sync.Mutex
	seeded bool
	cache  map[string]string
}

// NewPromptStore creates a store over promptDir. If promptDir is empty,
// defaults to ~/.docchat/prompts. Nothing is written until the first Load.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}
	return &PromptStore{dir: promptDir, cache: make(map[string]string)}, nil
}

// Load returns the template for name, caching it until Reload.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := driven.DefaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}
	if !s.seeded {
		s.seeded = true
		if err := s.seed(); err != nil {
			logger.Warn("prompts: using built-in defaults: %v", err)
		}
	}

	prompt := fallback
	if custom, err := s.read(name); err == nil {
		if err := checkTemplate(name, custom); err != nil {
			logger.Warn("prompts: ignoring %s: %v", s.file(name), err)
		} else {
			prompt = custom
		}
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string)
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) file(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.file(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// checkTemplate rejects a chat prompt without exactly one context placeholder.
func checkTemplate(name, tmpl string) error {
	if name != driven.PromptChatSystem {
		return nil
	}
	if n := strings.Count(tmpl, driven.ContextPlaceholder); n != 1 {
		return fmt.Errorf("want one %s placeholder for the context, found %d", driven.ContextPlaceholder, n)
	}
	return nil
}

// seed writes missing default files. Existing files are never touched.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files := map[string]string{"README.md": promptReadme}
	for name, content := range driven.DefaultPrompts {
		files[name+".txt"] = content
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

const promptReadme = `# docchat prompts

chat_system.txt is the system prompt wrapped around the passages retrieved
from your document. Edit it to change how answers are phrased; the server
picks up changes on restart.

Keep exactly one %s where the retrieved context goes. A file without it is
ignored and the built-in prompt is used instead.
`
