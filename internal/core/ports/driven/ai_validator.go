package driven

import "github.com/custodia-labs/docchat/internal/core/domain"

// AIConfigValidator checks provider settings against the live service
// before they are relied on. Unconfigured settings are not an error.
type AIConfigValidator interface {
	// ValidateEmbedding embeds a sample text and checks the vector size.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM checks the model endpoint answers.
	ValidateLLM(config *domain.LLMSettings) error
}
