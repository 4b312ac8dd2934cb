// Package pinecone provides a vector store backed by a hosted Pinecone
// index, spoken to over its REST data plane.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// apiVersion pins the data plane request and response shapes.
	apiVersion = "2024-07"
)

// Config holds configuration for the Pinecone store.
type Config struct {
	// Host is the index data plane URL (required).
	Host string

	// APIKey is sent as the Api-Key header (required).
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// MaxRetries bounds retries of rate-limited or failed requests.
	MaxRetries int
}

// Store talks to one Pinecone index. Documents map to index namespaces.
type Store struct {
	client *httpclient.Client
	host   string
}

type upsertRequest struct {
	Vectors   []domain.VectorEntry `json:"vectors"`
	Namespace string               `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	IncludeValues   bool      `json:"includeValues"`
}

type queryResponse struct {
	Matches []domain.VectorMatch `json:"matches"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace"`
}

type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// IndexStats summarises an index.
type IndexStats struct {
	Dimension    int
	TotalVectors int
	Namespaces   map[string]int
}

// NewStore creates a new Pinecone store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, errors.New("pinecone: index host is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	host := strings.TrimRight(cfg.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	return &Store{
		client: httpclient.New(httpclient.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Headers: map[string]string{
				"Api-Key":                cfg.APIKey,
				"X-Pinecone-API-Version": apiVersion,
			},
		}),
		host: host,
	}, nil
}

// Upsert writes entries in a single request.
func (s *Store) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var resp upsertResponse
	req := upsertRequest{Vectors: entries, Namespace: namespace}
	if err := s.client.DoJSON(ctx, http.MethodPost, s.host+"/vectors/upsert", nil, req, &resp); err != nil {
		return fmt.Errorf("pinecone: upsert: %w", err)
	}
	if resp.UpsertedCount != len(entries) {
		return fmt.Errorf("pinecone: upsert: wrote %d of %d vectors", resp.UpsertedCount, len(entries))
	}
	return nil
}

// Query returns the topK nearest entries with their metadata.
func (s *Store) Query(
	ctx context.Context,
	namespace string,
	vector []float32,
	topK int,
) ([]domain.VectorMatch, error) {
	req := queryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	var resp queryResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, s.host+"/query", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone: query: %w", err)
	}
	return resp.Matches, nil
}

// DeleteNamespace removes every vector in namespace.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	req := deleteRequest{DeleteAll: true, Namespace: namespace}
	err := s.client.DoJSON(ctx, http.MethodPost, s.host+"/vectors/delete", nil, req, nil)

	// Deleting a namespace that was never written answers 404
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pinecone: delete namespace: %w", err)
	}
	return nil
}

// Count returns the number of vectors stored under namespace.
func (s *Store) Count(ctx context.Context, namespace string) (int, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Namespaces[namespace], nil
}

// Stats describes the index.
func (s *Store) Stats(ctx context.Context) (IndexStats, error) {
	var resp statsResponse
	err := s.client.DoJSON(ctx, http.MethodPost, s.host+"/describe_index_stats", nil, struct{}{}, &resp)
	if err != nil {
		return IndexStats{}, fmt.Errorf("pinecone: describe index stats: %w", err)
	}

	stats := IndexStats{
		Dimension:    resp.Dimension,
		TotalVectors: resp.TotalVectorCount,
		Namespaces:   make(map[string]int, len(resp.Namespaces)),
	}
	for name, ns := range resp.Namespaces {
		stats.Namespaces[name] = ns.VectorCount
	}
	return stats, nil
}

// Ping validates the index is reachable and the key is accepted.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.Stats(ctx)
	return err
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
