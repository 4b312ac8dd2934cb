// Package openai embeds text with the OpenAI embeddings API or a
// compatible endpoint.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docchat/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*Service)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	provider = "openai"
)

// ErrMissingAPIKey is returned by New without a key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Config configures the adapter.
type Config struct {
	APIKey string

	// BaseURL can point at Azure OpenAI or another compatible server.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions is the expected vector length. For text-embedding-3-*
	// models it is also sent as the requested length; zero learns the
	// length from the first response.
	Dimensions int

	MaxRetries int
}

// Service calls POST /embeddings.
type Service struct {
	client   *httpclient.Client
	baseURL  string
	model    string
	truncate int // requested length, 0 for the model default
	dims     *embedding.Dims
}

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// New builds the adapter without calling the API. Requests ask for
// Dimensions only from text-embedding-3 models, which can shorten vectors.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := cmp.Or(cfg.Model, DefaultModel)
	s := &Service{
		client: httpclient.New(httpclient.Config{
			Timeout:    cmp.Or(cfg.Timeout, DefaultTimeout),
			MaxRetries: cfg.MaxRetries,
			Headers:    map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		}),
		baseURL: strings.TrimSuffix(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		model:   model,
		dims:    embedding.NewDims(cfg.Dimensions),
	}
	if strings.HasPrefix(model, "text-embedding-3-") {
		s.truncate = cfg.Dimensions
	}
	return s, nil
}

func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedding.One(ctx, s, text)
}

// EmbedBatch sends texts in one request. Results are placed by their
// index field, which the API does not promise to return in order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embedRequest{Model: s.model, Input: texts, Dimensions: s.truncate}
	var resp embedResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, s.baseURL+"/embeddings", nil, req, &resp); err != nil {
		return nil, embedding.Wrap(provider, err)
	}

	raw := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, embedding.Wrap(provider, fmt.Errorf("embedding index %d out of range", d.Index))
		}
		raw[d.Index] = d.Embedding
	}
	return embedding.Convert(provider, s.dims, raw)
}

func (s *Service) Dimensions() int { return s.dims.Get() }

func (s *Service) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/models", nil); err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
