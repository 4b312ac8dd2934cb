// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second

	provider = "ollama"
)

// Config configures the adapter. Zero fields take the defaults above.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is the expected vector length. Zero learns it from the
	// first response.
	Dimensions int

	MaxRetries int
}

// Service calls POST /api/embed, which takes a batch of inputs.
type Service struct {
	client   *httpclient.Client
	endpoint string
	baseURL  string
	model    string
	dims     *embedding.Dims
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// New builds the adapter without contacting the server.
func New(cfg Config) *Service {
	base := strings.TrimSuffix(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/")
	return &Service{
		client: httpclient.New(httpclient.Config{
			Timeout:    cmp.Or(cfg.Timeout, DefaultTimeout),
			MaxRetries: cfg.MaxRetries,
		}),
		endpoint: base + "/api/embed",
		baseURL:  base,
		model:    cmp.Or(cfg.Model, DefaultModel),
		dims:     embedding.NewDims(cfg.Dimensions),
	}
}

func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedding.One(ctx, s, text)
}

func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	req := embedRequest{Model: s.model, Input: texts}
	if err := s.client.DoJSON(ctx, http.MethodPost, s.endpoint, nil, req, &resp); err != nil {
		return nil, embedding.Wrap(provider, err)
	}
	if got := len(resp.Embeddings); got != len(texts) {
		return nil, embedding.Wrap(provider, fmt.Errorf("got %d embeddings for %d inputs", got, len(texts)))
	}
	return embedding.Convert(provider, s.dims, resp.Embeddings)
}

func (s *Service) Dimensions() int { return s.dims.Get() }

func (s *Service) ModelName() string { return s.model }

// Ping lists local models, which needs no inference.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/api/tags", nil); err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
