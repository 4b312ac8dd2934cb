package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

const dbFileName = "docchat.db"

// dsnPragmas are applied to every pooled connection. WAL lets the HTTP
// server answer reads while an ingestion is writing vectors.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns one database file and hands out the conversation and vector
// views over it. Both views share the connection; only Store.Close closes it.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) docchat.db in dataDir and brings its schema
// up to date. An empty dataDir means ~/.docchat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docchat", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// one writer at a time, so one connection avoids SQLITE_BUSY churn
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.upgrade(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path is the database file location.
func (s *Store) Path() string { return s.path }

// ConversationStore returns the conversations and messages view.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// VectorStore returns the chunk embedding view. Closing it leaves the
// database open.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}
