package services

import (
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService reads and writes AppSettings through a ConfigStore using
// the keys in bindings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a settings service. aiValidator may be nil, in
// which case the Validate*Config methods succeed without network calls.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator}
}

// Get overlays stored values on domain.DefaultAppSettings. An unknown
// provider name keeps the default provider.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	settings := defaults
	for key, b := range bindings {
		if v, ok := s.stored(key, b.kind); ok {
			b.load(&settings, v)
		}
	}

	if !settings.Embedding.Provider.IsValid() {
		settings.Embedding.Provider = defaults.Embedding.Provider
	}
	if !settings.LLM.Provider.IsValid() {
		settings.LLM.Provider = defaults.LLM.Provider
	}
	return &settings, nil
}

// stored reads key as kind. Empty strings and zero integers count as unset;
// floats and booleans are set once the key exists.
func (s *SettingsService) stored(key string, kind settingKind) (any, bool) {
	switch kind {
	case kindString:
		v := s.configStore.GetString(key)
		return v, v != ""
	case kindInt:
		n := s.configStore.GetInt(key)
		return n, n != 0
	}
	if _, ok := s.configStore.Get(key); !ok {
		return nil, false
	}
	if kind == kindFloat {
		return s.configStore.GetFloat(key), true
	}
	return s.configStore.GetBool(key), true
}

// Save writes every key. Empty credentials are skipped so a save never
// erases a stored secret.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, key := range SettingKeys() {
		v := bindings[key].value(settings)
		if v == "" && IsSecretKey(key) {
			continue
		}
		if err := s.configStore.Set(key, v); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set updates a single key. String values are parsed into the key's type,
// so "retrieval.top_k" accepts "3" from the command line.
func (s *SettingsService) Set(key string, value any) error {
	b, ok := bindings[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	v, err := coerce(b.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider switches embeddings to provider. An empty model picks
// the provider default; cloud providers need apiKey.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := checkProvider(provider, apiKey); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider switches the chat model, with the same defaults as
// SetEmbeddingProvider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if err := checkProvider(provider, apiKey); err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func checkProvider(provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}
	return nil
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Validate checks the current settings are internally consistent.
//
//nolint:gocyclo // flat list of independent checks
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: provider %q", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: provider %q", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	switch {
	case !settings.VectorStore.Backend.IsValid():
		return fmt.Errorf("%w: vector store backend %q", domain.ErrUnsupportedProvider, settings.VectorStore.Backend)
	case settings.VectorStore.Backend == domain.VectorBackendPinecone &&
		(settings.VectorStore.Pinecone.Host == "" || settings.VectorStore.Pinecone.APIKey == ""):
		return fmt.Errorf("%w: pinecone requires %s and %s", domain.ErrConfigNotFound, keyPineconeHost, keyPineconeAPIKey)
	case !settings.ObjectStore.Backend.IsValid():
		return fmt.Errorf("%w: object store backend %q", domain.ErrUnsupportedProvider, settings.ObjectStore.Backend)
	case settings.ObjectStore.Backend == domain.ObjectBackendS3 && settings.ObjectStore.Bucket == "":
		return fmt.Errorf("%w: s3 requires %s", domain.ErrConfigNotFound, keyObjectBucket)
	case settings.Storage.Backend != domain.StorageBackendMemory && settings.Storage.Backend != domain.StorageBackendSQLite:
		return fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedProvider, settings.Storage.Backend)
	case settings.Status.Backend != domain.StatusBackendMemory && settings.Status.Backend != domain.StatusBackendRedis:
		return fmt.Errorf("%w: status backend %q", domain.ErrUnsupportedProvider, settings.Status.Backend)
	case settings.Ingest.ChunkSize <= 0:
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyChunkSize)
	case settings.Ingest.ChunkOverlap < 0 || settings.Ingest.ChunkOverlap >= settings.Ingest.ChunkSize:
		return fmt.Errorf("%w: %s must be in [0, %s)", domain.ErrInvalidInput, keyChunkOverlap, keyChunkSize)
	case settings.Ingest.RateLimit < 0:
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, keyRateLimit)
	case settings.Retrieval.TopK <= 0:
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyTopK)
	case settings.Retrieval.MinScore < -1 || settings.Retrieval.MinScore > 1:
		return fmt.Errorf("%w: %s must be in [-1, 1]", domain.ErrInvalidInput, keyMinScore)
	}

	return nil
}

func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig embeds a sample text with the current settings.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	return s.check(func(a *domain.AppSettings) error { return s.aiValidator.ValidateEmbedding(&a.Embedding) })
}

// ValidateLLMConfig pings the configured chat model.
func (s *SettingsService) ValidateLLMConfig() error {
	return s.check(func(a *domain.AppSettings) error { return s.aiValidator.ValidateLLM(&a.LLM) })
}

func (s *SettingsService) check(fn func(*domain.AppSettings) error) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return fn(settings)
}
