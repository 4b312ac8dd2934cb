// Package ai builds the embedding and LLM adapters named in settings.
package ai

import (
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/adapters/driven/embedding"
	geminiembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// pingTimeout bounds each live check made by ConfigValidator.
const pingTimeout = 5 * time.Second

// fixHint is appended to warnings about unusable providers.
const fixHint = "run 'docchat config show' and 'docchat config set' to fix"

type (
	embedderFunc func(s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error)
	llmFunc      func(s *domain.LLMSettings) (driven.LLMService, error)
)

var embedders = map[domain.AIProvider]embedderFunc{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return ollamaembed.New(ollamaembed.Config{
			BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return asEmbedder(openaiembed.New(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}))
	},
	domain.AIProviderGemini: func(s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return asEmbedder(geminiembed.New(geminiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		}))
	},
}

var llms = map[domain.AIProvider]llmFunc{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.New(ollamallm.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return asLLM(openaillm.New(openaillm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model}))
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return asLLM(anthropicllm.New(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model}))
	},
	domain.AIProviderGemini: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return asLLM(geminillm.New(geminillm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model}))
	},
}

// asEmbedder and asLLM keep a failed constructor's nil pointer out of the
// interface.
func asEmbedder[T driven.EmbeddingService](svc T, err error) (driven.EmbeddingService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func asLLM[T driven.LLMService](svc T, err error) (driven.LLMService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Services are the adapters built by Init. A nil service means the
// provider is unconfigured or failed; Warnings says which.
type Services struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close releases both adapters.
func (s *Services) Close() {
	if s.EmbeddingService != nil {
		_ = s.EmbeddingService.Close()
	}
	if s.LLMService != nil {
		_ = s.LLMService.Close()
	}
}

// Init builds both adapters without contacting the providers. A failure
// leaves that service nil so commands that do not need it still run.
func Init(settings *domain.AppSettings) *Services {
	out := &Services{}
	var err error
	if out.EmbeddingService, err = NewEmbeddingService(&settings.Embedding); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%v; %s", err, fixHint))
	}
	if out.LLMService, err = NewLLMService(&settings.LLM); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%v; %s", err, fixHint))
	}
	return out
}

// NewEmbeddingService returns nil, nil when settings leave embeddings
// unconfigured. The vector length of known models is taken from
// domain.EmbeddingDimensions; other models learn it on first use.
func NewEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%w: %s does not support embeddings, use one of %v",
			domain.ErrUnsupportedProvider, settings.Provider, domain.AllEmbeddingProviders())
	}
	if !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embedders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, settings.Provider)
	}
	return build(settings, embedding.Lookup(domain.EmbeddingDimensions(), settings.Model))
}

// NewLLMService returns nil, nil when settings leave the LLM unconfigured.
func NewLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := llms[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, settings.Provider)
	}
	return build(settings)
}
