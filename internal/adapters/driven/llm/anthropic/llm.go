// Package anthropic streams answers from the Anthropic Messages API.
package anthropic

import (
	"cmp"
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
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	apiVersion = "2023-06-01"
)

// ErrMissingAPIKey is returned by New without a key.
var ErrMissingAPIKey = errors.New("anthropic: API key is required")

// errStop ends ReadSSE at message_stop.
var errStop = errors.New("message_stop")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Service is a driven.LLMService for POST /v1/messages.
type Service struct {
	client  *httpclient.Client
	baseURL string
	model   string
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Messages    []turn  `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature,omitempty"`
	Stream      bool    `json:"stream"`
}

// event is the data of one server-sent event. Only text deltas, errors
// and message_stop matter here.
type event struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New does not contact the provider.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Service{
		client: httpclient.New(httpclient.Config{
			Timeout: cmp.Or(cfg.Timeout, DefaultTimeout),
			Headers: map[string]string{
				"x-api-key":         cfg.APIKey,
				"anthropic-version": apiVersion,
			},
		}),
		baseURL: strings.TrimSuffix(cmp.Or(cfg.BaseURL, DefaultBaseURL), "/"),
		model:   cmp.Or(cfg.Model, DefaultModel),
	}, nil
}

func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return llm.Collect(s.StreamChat(ctx, messages, opts))
}

// StreamChat moves system messages into the top-level system field, which
// the Messages API requires, and emits each text_delta.
func (s *Service) StreamChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan string, <-chan error) {
	system, rest := llm.SplitSystem(messages)
	req := request{
		Model:       s.model,
		System:      system,
		Messages:    make([]turn, 0, len(rest)),
		MaxTokens:   cmp.Or(opts.MaxTokens, DefaultMaxTokens),
		Temperature: opts.Temperature,
		Stream:      true,
	}
	for _, m := range rest {
		req.Messages = append(req.Messages, turn(m))
	}

	return llm.Stream(ctx, func(emit func(string) error) error {
		body, err := s.client.Stream(ctx, http.MethodPost, s.baseURL+"/v1/messages", nil, req)
		if err != nil {
			return fmt.Errorf("anthropic: %w", err)
		}
		defer body.Close()

		err = httpclient.ReadSSE(body, func(ev httpclient.Event) error {
			return handle(ev.Data, emit)
		})
		return llm.Finish("anthropic", err, errStop)
	})
}

func handle(data string, emit func(string) error) error {
	var ev event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return fmt.Errorf("anthropic: decode event: %w", err)
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta != nil && ev.Delta.Type == "text_delta" {
			return emit(ev.Delta.Text)
		}
	case "message_stop":
		return errStop
	case "error":
		msg := "unknown error"
		if ev.Error != nil {
			msg = ev.Error.Type + ": " + ev.Error.Message
		}
		return fmt.Errorf("anthropic: %s", msg)
	}
	return nil
}

func (s *Service) ModelName() string { return s.model }

// Ping lists models, which runs no inference.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/v1/models", nil); err != nil {
		return fmt.Errorf("anthropic: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
