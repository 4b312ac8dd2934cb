package driving

import "github.com/custodia-labs/docchat/internal/core/domain"

// SettingsService reads and edits the persisted configuration. Keys use
// dots for nesting, as in "retrieval.top_k" or "vector_store.pinecone.host".
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	GetDefaults() domain.AppSettings
	Save(settings *domain.AppSettings) error

	// Set parses value for key and saves it. Unknown keys and values that
	// fail validation are rejected with domain.ErrInvalidInput.
	Set(key string, value any) error

	// SetEmbeddingProvider and SetLLMProvider replace the provider, model
	// and key together. Cloud providers clear the base URL; Ollama keeps a
	// custom one.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the saved settings without contacting any service.
	Validate() error

	// ValidateEmbeddingConfig embeds a sample string with the saved
	// embedding settings. ValidateLLMConfig pings the saved LLM.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
