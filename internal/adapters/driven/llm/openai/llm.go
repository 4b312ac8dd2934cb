// Package openai streams answers from the chat completions endpoint of
// OpenAI or any server that speaks the same protocol.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// ErrMissingAPIKey is returned by New without a key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Config points the adapter at an endpoint. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Service is a driven.LLMService over POST /chat/completions.
type Service struct {
	client   *httpclient.Client
	endpoint string
	models   string
	model    string
}

var _ driven.LLMService = (*Service)(nil)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// completionEvent is the payload of one "data:" line.
type completionEvent struct {
	Choices []struct {
		Delta message `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// endOfStream is the data payload OpenAI sends after the last choice.
const endOfStream = "[DONE]"

var errEndOfStream = errors.New("end of stream")

// New does not contact the provider.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Service{
		client: httpclient.New(httpclient.Config{
			Timeout: timeout,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		}),
		endpoint: base + "/chat/completions",
		models:   base + "/models",
		model:    model,
	}, nil
}

func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return llm.Collect(s.StreamChat(ctx, messages, opts))
}

// StreamChat forwards each content delta of the server-sent event stream.
func (s *Service) StreamChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan string, <-chan error) {
	req := completionRequest{
		Model:       s.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      true,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, message(m))
	}

	return llm.Stream(ctx, func(emit func(string) error) error {
		body, err := s.client.Stream(ctx, http.MethodPost, s.endpoint, nil, req)
		if err != nil {
			return fmt.Errorf("openai: %w", err)
		}
		defer body.Close()

		err = httpclient.ReadSSE(body, func(ev httpclient.Event) error {
			if ev.Data == endOfStream {
				return errEndOfStream
			}
			var event completionEvent
			if err := json.Unmarshal([]byte(ev.Data), &event); err != nil {
				return fmt.Errorf("openai: decode event: %w", err)
			}
			if event.Error != nil {
				return fmt.Errorf("openai error: %s", event.Error.Message)
			}
			for _, c := range event.Choices {
				if err := emit(c.Delta.Content); err != nil {
					return err
				}
			}
			return nil
		})
		return llm.Finish("openai", err, errEndOfStream)
	})
}

func (s *Service) ModelName() string { return s.model }

// Ping lists models, which costs no tokens.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.models, nil); err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
