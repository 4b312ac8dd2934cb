// Package ollama streams answers from a local Ollama server.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config needs no fields; zero values select a local server and llama3.2.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Service is a driven.LLMService over POST /api/chat.
type Service struct {
	client  *httpclient.Client
	baseURL string
	model   string
}

var _ driven.LLMService = (*Service)(nil)

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// generation maps ChatOptions onto Ollama's model options.
type generation struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatRequest struct {
	Model    string      `json:"model"`
	Messages []turn      `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  *generation `json:"options,omitempty"`
}

// chatLine is one newline-delimited object of the reply stream.
type chatLine struct {
	Message turn   `json:"message"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

var errDone = errors.New("done")

// New does not contact the server.
func New(cfg Config) *Service {
	s := &Service{baseURL: cfg.BaseURL, model: cfg.Model}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	s.client = httpclient.New(httpclient.Config{Timeout: timeout})
	return s
}

func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return llm.Collect(s.StreamChat(ctx, messages, opts))
}

// StreamChat forwards message.content of every line until one has done set.
func (s *Service) StreamChat(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan string, <-chan error) {
	req := chatRequest{Model: s.model, Stream: true}
	for _, m := range messages {
		req.Messages = append(req.Messages, turn(m))
	}
	if opts != (driven.ChatOptions{}) {
		req.Options = &generation{NumPredict: opts.MaxTokens, Temperature: opts.Temperature}
	}

	return llm.Stream(ctx, func(emit func(string) error) error {
		body, err := s.client.Stream(ctx, http.MethodPost, s.baseURL+"/api/chat", nil, req)
		if err != nil {
			return fmt.Errorf("ollama: %w", err)
		}
		defer body.Close()

		err = httpclient.ReadLines(body, func(raw []byte) error {
			var line chatLine
			if err := json.Unmarshal(raw, &line); err != nil {
				return fmt.Errorf("ollama: decode line: %w", err)
			}
			if line.Error != "" {
				return fmt.Errorf("ollama error: %s", line.Error)
			}
			if err := emit(line.Message.Content); err != nil {
				return err
			}
			if line.Done {
				return errDone
			}
			return nil
		})
		return llm.Finish("ollama", err, errDone)
	})
}

func (s *Service) ModelName() string { return s.model }

// Ping lists local models without loading one.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, s.baseURL+"/api/tags", nil); err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	return nil
}

func (s *Service) Close() error { return nil }
