// Package watcher indexes PDFs as they appear in a directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultSettle is how long a file must go without writes before it is
// picked up. Copies into the directory arrive as a burst of write events.
const DefaultSettle = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	// Settle is the quiet period after the last write. Zero means DefaultSettle.
	Settle time.Duration

	// Extensions lists the file extensions to pick up, ".pdf" by default.
	Extensions []string
}

// Result is the outcome for one picked-up file.
type Result struct {
	Path         string
	Conversation domain.Conversation
	Err          error
}

// Watcher uploads settled files and opens a conversation on each.
type Watcher struct {
	conversations driving.ConversationService
	fs            *fsnotify.Watcher
	settle        time.Duration
	extensions    []string
}

// New creates a watcher. Call Close when done.
func New(conversations driving.ConversationService, opts Options) (*Watcher, error) {
	if conversations == nil {
		return nil, errors.New("watcher: conversation service is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".pdf"}
	}

	return &Watcher{
		conversations: conversations,
		fs:            fsw,
		settle:        opts.Settle,
		extensions:    opts.Extensions,
	}, nil
}

// Run watches dir until ctx is cancelled, calling fn once per settled file.
// Files are processed one at a time in the order they settle.
func (w *Watcher) Run(ctx context.Context, dir string, fn func(Result)) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log := logger.With("watcher")
	log.Info().Str("dir", dir).Dur("settle", w.settle).Msg("watching")

	done := make(chan struct{})
	defer close(done)

	ready := make(chan string, 16)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.isWatched(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			path := event.Name
			if t, ok := pending[path]; ok {
				t.Reset(w.settle)
				continue
			}
			pending[path] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})

		case path := <-ready:
			delete(pending, path)
			conv, err := w.process(ctx, path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("indexing failed")
			} else {
				log.Info().Str("path", path).Int64("chat", conv.ID).Msg("indexed")
			}
			fn(Result{Path: path, Conversation: conv, Err: err})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) process(ctx context.Context, path string) (domain.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer f.Close()

	name := filepath.Base(path)
	key, err := w.conversations.Upload(ctx, name, f)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("uploading: %w", err)
	}
	return w.conversations.CreateConversation(ctx, key, name)
}

func (w *Watcher) isWatched(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
