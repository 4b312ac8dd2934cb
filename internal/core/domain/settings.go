package domain

// AIProvider names a hosted or local model API.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGemini    AIProvider = "gemini"
)

// providerTraits is what the settings code needs to know about a provider
// without importing its client.
type providerTraits struct {
	label      string
	local      bool
	embeddings bool
}

var providers = map[AIProvider]providerTraits{
	AIProviderOllama:    {label: "Ollama (local)", local: true, embeddings: true},
	AIProviderOpenAI:    {label: "OpenAI (cloud)", embeddings: true},
	AIProviderAnthropic: {label: "Anthropic (cloud)"},
	AIProviderGemini:    {label: "Gemini (cloud)", embeddings: true},
}

const unknownDescription = "Unknown"

func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey is true for every provider that is not run locally.
func (p AIProvider) RequiresAPIKey() bool { return p.IsValid() && !providers[p].local }

func (p AIProvider) IsLocal() bool { return providers[p].local }

// SupportsEmbeddings reports whether the provider has an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool { return providers[p].embeddings }

func (p AIProvider) String() string { return string(p) }

// Description is the label shown in provider menus.
func (p AIProvider) Description() string {
	if t, ok := providers[p]; ok {
		return t.label
	}
	return unknownDescription
}

// EmbeddingSettings selects the model that turns chunks and questions into
// vectors. An empty BaseURL uses the provider's public endpoint.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured is false when the provider cannot embed or lacks its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && hasKey(e.Provider, e.APIKey)
}

// LLMSettings selects the chat model that writes answers.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && hasKey(l.Provider, l.APIKey)
}

func hasKey(p AIProvider, key string) bool {
	return !p.RequiresAPIKey() || key != ""
}

// VectorBackend selects where embeddings are stored.
type VectorBackend string

// Available vector store backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendSQLite   VectorBackend = "sqlite"
	VectorBackendPinecone VectorBackend = "pinecone"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPinecone:
		return true
	default:
		return false
	}
}

// PineconeSettings holds hosted index connection details.
type PineconeSettings struct {
	// Host is the index data plane URL, e.g. https://chatpdf-abc123.svc.us-east1-gcp.pinecone.io.
	Host string

	// APIKey is sent as the Api-Key header.
	APIKey string
}

// VectorStoreSettings holds vector index configuration.
type VectorStoreSettings struct {
	Backend VectorBackend

	// BatchSize is the number of entries per upsert call.
	BatchSize int

	Pinecone PineconeSettings
}

// ObjectBackend selects where uploaded files live.
type ObjectBackend string

// Available object store backends.
const (
	ObjectBackendFilesystem ObjectBackend = "filesystem"
	ObjectBackendS3         ObjectBackend = "s3"
)

// IsValid returns true if the backend is recognised.
func (b ObjectBackend) IsValid() bool {
	return b == ObjectBackendFilesystem || b == ObjectBackendS3
}

// ObjectStoreSettings holds upload storage configuration.
type ObjectStoreSettings struct {
	Backend ObjectBackend

	// Root is the directory used by the filesystem backend.
	Root string

	// Bucket, Region and Endpoint configure the S3 backend. Endpoint may point
	// at any S3-compatible server such as MinIO.
	Bucket   string
	Region   string
	Endpoint string

	AccessKey string
	SecretKey string
}

// StorageBackend selects the conversation store.
type StorageBackend string

// Available conversation store backends.
const (
	StorageBackendMemory StorageBackend = "memory"
	StorageBackendSQLite StorageBackend = "sqlite"
)

// StorageSettings holds relational store configuration.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the sqlite database file.
	DataDir string
}

// StatusBackend selects where ingestion progress is tracked.
type StatusBackend string

// Available ingestion status backends.
const (
	StatusBackendMemory StatusBackend = "memory"
	StatusBackendRedis  StatusBackend = "redis"
)

// RedisSettings holds redis connection details.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

// StatusSettings holds ingestion status tracking configuration.
type StatusSettings struct {
	Backend StatusBackend
	Redis   RedisSettings
}

// IngestSettings tunes the ingestion pipeline.
type IngestSettings struct {
	ChunkSize    int
	ChunkOverlap int

	// Concurrency bounds parallel embedding calls per document.
	Concurrency int

	// RateLimit caps embedding calls per second. Zero means unlimited.
	RateLimit float64
}

// RetrievalSettings tunes context retrieval.
type RetrievalSettings struct {
	TopK            int
	MinScore        float64
	MaxContextChars int
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Level  string
	Pretty bool
}

// AppSettings is the whole configuration, one section per TOML table.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	ObjectStore ObjectStoreSettings
	Storage     StorageSettings
	Status      StatusSettings
	Ingest      IngestSettings
	Retrieval   RetrievalSettings
	Server      ServerSettings
	Log         LogSettings
}

// DefaultAppSettings needs no external service besides Ollama: vectors and
// chats go to sqlite and uploads to the local filesystem.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		VectorStore: VectorStoreSettings{
			Backend:   VectorBackendSQLite,
			BatchSize: 10,
		},
		ObjectStore: ObjectStoreSettings{
			Backend: ObjectBackendFilesystem,
			Region:  "us-east-1",
		},
		Storage: StorageSettings{
			Backend: StorageBackendSQLite,
		},
		Status: StatusSettings{
			Backend: StatusBackendMemory,
			Redis: RedisSettings{
				Addr: "localhost:6379",
			},
		},
		Ingest: IngestSettings{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Concurrency:  4,
		},
		Retrieval: RetrievalSettings{
			TopK:            5,
			MinScore:        0.7,
			MaxContextChars: 3000,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// AllEmbeddingProviders lists the providers offered for embeddings, in
// menu order.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, p := range AllLLMProviders() {
		if p.SupportsEmbeddings() {
			out = append(out, p)
		}
	}
	return out
}

// AllLLMProviders lists every provider in menu order, local first.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini}
}

// DefaultEmbeddingModels is the model preselected when a provider is chosen.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "embedding-001",
	}
}

// DefaultLLMModels is the chat model preselected per provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-pro",
	}
}

// EmbeddingDimensions maps well-known embedding models to their vector
// length. Models not listed have their length learned from the first call.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"embedding-001":      768,
		"text-embedding-004": 768,
	}
}
