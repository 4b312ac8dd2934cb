// Package redis provides an ingestion status store backed by Redis, so
// several server replicas observe the same ingestion progress.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.IngestionStatusStore = (*StatusStore)(nil)

// Default configuration values.
const (
	DefaultKeyPrefix = "docchat:ingest:"
	DefaultTTL       = 7 * 24 * time.Hour
)

// Options configures the Redis connection.
type Options struct {
	// Address is the Redis server address (default: localhost:6379).
	Address string

	// Password required when connecting to the Redis server.
	Password string

	// DB to connect to.
	DB int

	// KeyPrefix namespaces status keys (default: docchat:ingest:).
	KeyPrefix string

	// TTL expires statuses of documents that are never touched again.
	// Zero uses DefaultTTL; negative keeps them forever.
	TTL time.Duration
}

// StatusStore keeps the latest ingestion status per document as JSON.
type StatusStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	owner  bool
}

// NewStatusStore opens a connection owned by the returned store.
func NewStatusStore(opts Options) *StatusStore {
	if opts.Address == "" {
		opts.Address = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := NewStatusStoreWithClient(client, opts)
	s.owner = true
	return s
}

// NewStatusStoreWithClient wraps an existing client. Close leaves it open.
func NewStatusStoreWithClient(client *redis.Client, opts Options) *StatusStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TTL < 0 {
		opts.TTL = 0
	}
	return &StatusStore{client: client, prefix: opts.KeyPrefix, ttl: opts.TTL}
}

// Key returns the Redis key holding documentKey's status.
func (s *StatusStore) Key(documentKey string) string {
	return s.prefix + documentKey
}

// Save replaces the status for status.DocumentKey.
func (s *StatusStore) Save(ctx context.Context, status domain.IngestStatus) error {
	data, err := encodeStatus(status)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key(status.DocumentKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving ingest status: %w", err)
	}
	return nil
}

// Get returns domain.ErrNotFound if the document was never ingested.
func (s *StatusStore) Get(ctx context.Context, documentKey string) (domain.IngestStatus, error) {
	data, err := s.client.Get(ctx, s.Key(documentKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IngestStatus{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.IngestStatus{}, fmt.Errorf("getting ingest status: %w", err)
	}
	return decodeStatus(data)
}

// Ping tests connectivity.
func (s *StatusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection if this store opened it.
func (s *StatusStore) Close() error {
	if !s.owner {
		return nil
	}
	return s.client.Close()
}

func encodeStatus(status domain.IngestStatus) ([]byte, error) {
	data, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("encoding ingest status: %w", err)
	}
	return data, nil
}

func decodeStatus(data []byte) (domain.IngestStatus, error) {
	var status domain.IngestStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.IngestStatus{}, fmt.Errorf("decoding ingest status: %w", err)
	}
	return status, nil
}
