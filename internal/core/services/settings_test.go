package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// seeded returns a service over an in-memory store holding values.
func seeded(t *testing.T, values map[string]any) (*SettingsService, *memory.ConfigStore) {
	t.Helper()
	store := memory.NewConfigStore()
	for k, v := range values {
		require.NoError(t, store.Set(k, v))
	}
	return NewSettingsService(store, nil), store
}

func load(t *testing.T, svc *SettingsService) *domain.AppSettings {
	t.Helper()
	settings, err := svc.Get()
	require.NoError(t, err)
	return settings
}

func TestSettingsService_Get(t *testing.T) {
	svc, _ := seeded(t, nil)
	assert.Equal(t, domain.DefaultAppSettings(), *load(t, svc))
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	svc, _ := seeded(t, map[string]any{
		"embedding.provider":         "openai",
		"embedding.model":            "text-embedding-3-large",
		"vector_store.backend":       "pinecone",
		"vector_store.pinecone.host": "https://idx.pinecone.io",
		"retrieval.top_k":            3,
		"retrieval.min_score":        0.0,
		"ingest.rate_limit":          2.5,
		"log.pretty":                 true,
		"status.redis.db":            2,
	})

	settings := load(t, svc)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, domain.VectorBackendPinecone, settings.VectorStore.Backend)
	assert.Equal(t, "https://idx.pinecone.io", settings.VectorStore.Pinecone.Host)
	assert.Equal(t, 3, settings.Retrieval.TopK)
	assert.Zero(t, settings.Retrieval.MinScore, "explicit zero must not fall back to the default")
	assert.InDelta(t, 2.5, settings.Ingest.RateLimit, 1e-9)
	assert.True(t, settings.Log.Pretty)
	assert.Equal(t, 2, settings.Status.Redis.DB)
}

func TestSettingsService_Get_UnknownProviderFallsBack(t *testing.T) {
	svc, _ := seeded(t, map[string]any{"embedding.provider": "cohere", "llm.provider": "mistral"})

	settings := load(t, svc)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	svc, _ := seeded(t, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderGemini, Model: "gemini-1.5-pro", APIKey: "g-key"}
	settings.ObjectStore.Backend = domain.ObjectBackendS3
	settings.ObjectStore.Bucket = "uploads"
	settings.Retrieval.MaxContextChars = 1500

	require.NoError(t, svc.Save(&settings))
	assert.Equal(t, settings, *load(t, svc))
}

func TestSettingsService_Save_KeepsStoredSecrets(t *testing.T) {
	svc, store := seeded(t, map[string]any{"llm.api_key": "existing"})

	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = ""
	require.NoError(t, svc.Save(&settings))

	assert.Equal(t, "existing", store.GetString("llm.api_key"))
}

func TestSettingsService_Set(t *testing.T) {
	tests := map[string]struct {
		key   string
		value any
		want  any // nil means rejected
	}{
		"int from string":   {key: "retrieval.top_k", value: " 3 ", want: 3},
		"float from string": {key: "retrieval.min_score", value: "0.65", want: 0.65},
		"float from int":    {key: "ingest.rate_limit", value: 2, want: 2.0},
		"bool from string":  {key: "log.pretty", value: "true", want: true},
		"plain string":      {key: "server.addr", value: ":9000", want: ":9000"},
		"unknown key":       {key: "search.mode", value: "hybrid"},
		"bad int":           {key: "retrieval.top_k", value: "many"},
		"int for string":    {key: "server.addr", value: 12},
		"float for int":     {key: "retrieval.top_k", value: 2.5},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, store := seeded(t, nil)

			err := svc.Set(tt.key, tt.value)
			got, stored := store.Get(tt.key)

			if tt.want == nil {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.False(t, stored)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingKeys_SortedAndComplete(t *testing.T) {
	keys := SettingKeys()

	assert.IsNonDecreasing(t, keys)
	assert.Contains(t, keys, "vector_store.pinecone.api_key")
	assert.Contains(t, keys, "retrieval.max_context_chars")
	assert.True(t, IsSecretKey("vector_store.pinecone.api_key"))
	assert.True(t, IsSecretKey("object_store.secret_key"))
	assert.True(t, IsSecretKey("status.redis.password"))
	assert.False(t, IsSecretKey("llm.model"))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("cloud provider with default model", func(t *testing.T) {
		svc, _ := seeded(t, nil)

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderGemini, "", "key"))

		settings := load(t, svc)
		assert.Equal(t, domain.AIProviderGemini, settings.Embedding.Provider)
		assert.Equal(t, "embedding-001", settings.Embedding.Model)
		assert.Empty(t, settings.Embedding.BaseURL)
		assert.Equal(t, "key", settings.Embedding.APIKey)
	})

	t.Run("local provider gets base url", func(t *testing.T) {
		svc, _ := seeded(t, map[string]any{"embedding.base_url": "http://gpu-box:11434"})

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "all-minilm", ""))

		settings := load(t, svc)
		assert.Equal(t, "all-minilm", settings.Embedding.Model)
		assert.Equal(t, "http://gpu-box:11434", settings.Embedding.BaseURL)
	})

	rejected := map[string]struct {
		provider domain.AIProvider
		key      string
	}{
		"anthropic has no embeddings": {domain.AIProviderAnthropic, "key"},
		"missing api key":             {domain.AIProviderOpenAI, ""},
		"unknown provider":            {domain.AIProvider("cohere"), "k"},
	}
	for name, tt := range rejected {
		t.Run(name, func(t *testing.T) {
			svc, store := seeded(t, nil)
			assert.Error(t, svc.SetEmbeddingProvider(tt.provider, "", tt.key))
			assert.Empty(t, store.Keys())
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc, _ := seeded(t, map[string]any{"llm.base_url": "http://localhost:11434"})

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))

	settings := load(t, svc)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL, "cloud providers drop the local URL")

	assert.Error(t, svc.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, svc.SetLLMProvider(domain.AIProvider(""), "", ""))
}

func TestSettingsService_Validate(t *testing.T) {
	tests := map[string]struct {
		values  map[string]any
		wantErr error
	}{
		"defaults":                 {},
		"openai embedding, no key": {map[string]any{"embedding.provider": "openai"}, domain.ErrEmbeddingUnavailable},
		"gemini llm, no key":       {map[string]any{"llm.provider": "gemini"}, domain.ErrLLMUnavailable},
		"unknown vector backend":   {map[string]any{"vector_store.backend": "qdrant"}, domain.ErrUnsupportedProvider},
		"pinecone without host":    {map[string]any{"vector_store.backend": "pinecone"}, domain.ErrConfigNotFound},
		"s3 without bucket":        {map[string]any{"object_store.backend": "s3"}, domain.ErrConfigNotFound},
		"unknown status backend":   {map[string]any{"status.backend": "etcd"}, domain.ErrUnsupportedProvider},
		"overlap not below size":   {map[string]any{"ingest.chunk_overlap": 1000}, domain.ErrInvalidInput},
		"min score above one":      {map[string]any{"retrieval.min_score": 1.5}, domain.ErrInvalidInput},
		"negative rate limit":      {map[string]any{"ingest.rate_limit": -1.0}, domain.ErrInvalidInput},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, _ := seeded(t, tt.values)
			err := svc.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// recordingValidator records the settings it was asked to check.
type recordingValidator struct {
	err   error
	model string
}

func (p *recordingValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	p.model = s.Model
	return p.err
}

func (p *recordingValidator) ValidateLLM(s *domain.LLMSettings) error {
	p.model = s.Model
	return p.err
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("embedding.model", "mxbai-embed-large"))
	require.NoError(t, store.Set("llm.model", "qwen2.5"))

	offline := NewSettingsService(store, nil)
	assert.NoError(t, offline.ValidateEmbeddingConfig())
	assert.NoError(t, offline.ValidateLLMConfig())

	validator := &recordingValidator{}
	svc := NewSettingsService(store, validator)
	require.NoError(t, svc.ValidateEmbeddingConfig())
	assert.Equal(t, "mxbai-embed-large", validator.model)
	require.NoError(t, svc.ValidateLLMConfig())
	assert.Equal(t, "qwen2.5", validator.model)

	validator.err = assert.AnError
	assert.ErrorIs(t, svc.ValidateEmbeddingConfig(), assert.AnError)
	assert.ErrorIs(t, svc.ValidateLLMConfig(), assert.AnError)
}

func TestBindings_ValueLoadsBack(t *testing.T) {
	src := domain.DefaultAppSettings()
	src.Status.Redis.DB = 4
	src.Log.Pretty = true

	for key, b := range bindings {
		t.Run(key, func(t *testing.T) {
			v, err := coerce(b.kind, b.value(&src))
			require.NoError(t, err)

			var dst domain.AppSettings
			b.load(&dst, v)
			assert.Equal(t, b.value(&src), b.value(&dst))
		})
	}
}
