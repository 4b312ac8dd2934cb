// Package gemini embeds text with the Gemini batchEmbedContents API.
package gemini

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
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "embedding-001"
	DefaultTimeout = 60 * time.Second

	provider = "gemini"
)

var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Config configures the adapter. Only APIKey is required. A zero
// Dimensions learns the vector length from the first response.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string // with or without the "models/" prefix
	Timeout    time.Duration
	Dimensions int
	MaxRetries int
}

// Service embeds every text of a batch in one batchEmbedContents call.
type Service struct {
	client  *httpclient.Client
	baseURL string
	model   string
	dims    *embedding.Dims
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type batchRequest struct {
	Requests []embedRequest `json:"requests"`
}

type values struct {
	Values []float64 `json:"values"`
}

type batchResponse struct {
	Embeddings []values `json:"embeddings"`
}

// New builds the adapter without calling the API.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Service{
		client: httpclient.New(httpclient.Config{
			Timeout:    cmp.Or(cfg.Timeout, DefaultTimeout),
			MaxRetries: cfg.MaxRetries,
			Headers:    map[string]string{"x-goog-api-key": cfg.APIKey},
		}),
		baseURL: strings.TrimSuffix(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		model:   strings.TrimPrefix(cmp.Or(cfg.Model, DefaultModel), "models/"),
		dims:    embedding.NewDims(cfg.Dimensions),
	}, nil
}

func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedding.One(ctx, s, text)
}

// EmbedBatch embeds texts with a single batchEmbedContents call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := batchRequest{Requests: make([]embedRequest, len(texts))}
	for i, t := range texts {
		req.Requests[i] = embedRequest{
			Model:   "models/" + s.model,
			Content: content{Parts: []part{{Text: t}}},
		}
	}

	var resp batchResponse
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", s.baseURL, s.model)
	if err := s.client.DoJSON(ctx, http.MethodPost, url, nil, req, &resp); err != nil {
		return nil, embedding.Wrap(provider, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, embedding.Wrap(provider,
			fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts)))
	}

	raw := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		raw[i] = e.Values
	}
	return embedding.Convert(provider, s.dims, raw)
}

// Dimensions is zero until the first response when none was configured.
func (s *Service) Dimensions() int { return s.dims.Get() }

func (s *Service) ModelName() string { return s.model }

// Ping fetches the model description, which fails on a bad key.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, fmt.Sprintf("%s/models/%s", s.baseURL, s.model), nil); err != nil {
		return fmt.Errorf("gemini: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
