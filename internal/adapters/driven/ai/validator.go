package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// sampleText is embedded to check a provider returns usable vectors.
const sampleText = "docchat configuration check"

// ConfigValidator checks provider settings against the live services.
// The embedding check embeds a sample sentence, so a model whose vector
// size differs from the configured dimensions is caught before it writes
// mismatched vectors into an index.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that gives each check pingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding returns nil when config is nil or not configured.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := NewEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return checkEmbedding(ctx, svc)
}

// ValidateLLM returns nil when config is nil or not configured.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := NewLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, svc.ModelName(), err)
	}
	return nil
}

func checkEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrEmbeddingUnavailable, svc.ModelName(), len(vec), want)
	}
	return nil
}
