// Package gemini streams answers from the Gemini streamGenerateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.LLMService = (*Service)(nil)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-pro"
	DefaultTimeout = 120 * time.Second
)

// Config points the adapter at an endpoint. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Service is a driven.LLMService for the Gemini API.
type Service struct {
	client  *httpclient.Client
	baseURL string
	model   string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// errFinished ends ReadSSE once a candidate reports a finishReason.
var errFinished = errors.New("finished")

// New does not contact the provider.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Service{
		client: httpclient.New(httpclient.Config{
			Timeout: cfg.Timeout,
			Headers: map[string]string{"x-goog-api-key": cfg.APIKey},
		}),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   strings.TrimPrefix(cfg.Model, "models/"),
	}, nil
}

func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return llm.Collect(s.StreamChat(ctx, messages, opts))
}

// StreamChat streams the reply from streamGenerateContent. Gemini calls
// the assistant role "model" and takes system text as systemInstruction.
func (s *Service) StreamChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan string, <-chan error) {
	system, turns := llm.SplitSystem(messages)

	req := generateRequest{Contents: make([]content, len(turns))}
	for i, m := range turns {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		req.Contents[i] = content{Role: role, Parts: []part{{Text: m.Content}}}
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.GenerationConfig = &generationConfig{MaxOutputTokens: opts.MaxTokens, Temperature: opts.Temperature}
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", s.baseURL, s.model)

	return llm.Stream(ctx, func(emit func(string) error) error {
		body, err := s.client.Stream(ctx, http.MethodPost, url, nil, req)
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		defer body.Close()

		err = httpclient.ReadSSE(body, func(ev httpclient.Event) error {
			var resp generateResponse
			if err := json.Unmarshal([]byte(ev.Data), &resp); err != nil {
				return fmt.Errorf("gemini: decode chunk: %w", err)
			}
			if resp.Error != nil {
				return fmt.Errorf("gemini error: %s", resp.Error.Message)
			}
			finished := false
			for _, c := range resp.Candidates {
				for _, p := range c.Content.Parts {
					if err := emit(p.Text); err != nil {
						return err
					}
				}
				finished = finished || c.FinishReason != ""
			}
			if finished {
				return errFinished
			}
			return nil
		})
		return llm.Finish("gemini", err, errFinished)
	})
}

func (s *Service) ModelName() string { return s.model }

// Ping validates the API key by fetching the model description.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, fmt.Sprintf("%s/models/%s", s.baseURL, s.model), nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
