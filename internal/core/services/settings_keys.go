package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

//nolint:gosec // G101: key names, not credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyVectorBackend   = "vector_store.backend"
	keyVectorBatchSize = "vector_store.batch_size"
	keyPineconeHost    = "vector_store.pinecone.host"
	keyPineconeAPIKey  = "vector_store.pinecone.api_key"

	keyObjectBackend   = "object_store.backend"
	keyObjectRoot      = "object_store.root"
	keyObjectBucket    = "object_store.bucket"
	keyObjectRegion    = "object_store.region"
	keyObjectEndpoint  = "object_store.endpoint"
	keyObjectAccessKey = "object_store.access_key"
	keyObjectSecretKey = "object_store.secret_key"

	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"

	keyStatusBackend = "status.backend"
	keyRedisAddr     = "status.redis.addr"
	keyRedisPassword = "status.redis.password"
	keyRedisDB       = "status.redis.db"

	keyChunkSize    = "ingest.chunk_size"
	keyChunkOverlap = "ingest.chunk_overlap"
	keyConcurrency  = "ingest.concurrency"
	keyRateLimit    = "ingest.rate_limit"

	keyTopK            = "retrieval.top_k"
	keyMinScore        = "retrieval.min_score"
	keyMaxContextChars = "retrieval.max_context_chars"

	keyServerAddr = "server.addr"
	keyLogLevel   = "log.level"
	keyLogPretty  = "log.pretty"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
)

// binding ties a config key to one field of AppSettings. load receives a
// value already coerced to kind.
type binding struct {
	kind  settingKind
	load  func(a *domain.AppSettings, v any)
	value func(a *domain.AppSettings) any
}

func text[T ~string](f func(*domain.AppSettings) *T) binding {
	return binding{
		kind:  kindString,
		load:  func(a *domain.AppSettings, v any) { *f(a) = T(v.(string)) },
		value: func(a *domain.AppSettings) any { return string(*f(a)) },
	}
}

func number(f func(*domain.AppSettings) *int) binding {
	return binding{
		kind:  kindInt,
		load:  func(a *domain.AppSettings, v any) { *f(a) = v.(int) },
		value: func(a *domain.AppSettings) any { return *f(a) },
	}
}

func decimal(f func(*domain.AppSettings) *float64) binding {
	return binding{
		kind:  kindFloat,
		load:  func(a *domain.AppSettings, v any) { *f(a) = v.(float64) },
		value: func(a *domain.AppSettings) any { return *f(a) },
	}
}

func boolean(f func(*domain.AppSettings) *bool) binding {
	return binding{
		kind:  kindBool,
		load:  func(a *domain.AppSettings, v any) { *f(a) = v.(bool) },
		value: func(a *domain.AppSettings) any { return *f(a) },
	}
}

// bindings lists every accepted key.
var bindings = map[string]binding{
	keyEmbedProvider: text(func(a *domain.AppSettings) *domain.AIProvider { return &a.Embedding.Provider }),
	keyEmbedModel:    text(func(a *domain.AppSettings) *string { return &a.Embedding.Model }),
	keyEmbedBaseURL:  text(func(a *domain.AppSettings) *string { return &a.Embedding.BaseURL }),
	keyEmbedAPIKey:   text(func(a *domain.AppSettings) *string { return &a.Embedding.APIKey }),
	keyLLMProvider:   text(func(a *domain.AppSettings) *domain.AIProvider { return &a.LLM.Provider }),
	keyLLMModel:      text(func(a *domain.AppSettings) *string { return &a.LLM.Model }),
	keyLLMBaseURL:    text(func(a *domain.AppSettings) *string { return &a.LLM.BaseURL }),
	keyLLMAPIKey:     text(func(a *domain.AppSettings) *string { return &a.LLM.APIKey }),

	keyVectorBackend:   text(func(a *domain.AppSettings) *domain.VectorBackend { return &a.VectorStore.Backend }),
	keyVectorBatchSize: number(func(a *domain.AppSettings) *int { return &a.VectorStore.BatchSize }),
	keyPineconeHost:    text(func(a *domain.AppSettings) *string { return &a.VectorStore.Pinecone.Host }),
	keyPineconeAPIKey:  text(func(a *domain.AppSettings) *string { return &a.VectorStore.Pinecone.APIKey }),

	keyObjectBackend:   text(func(a *domain.AppSettings) *domain.ObjectBackend { return &a.ObjectStore.Backend }),
	keyObjectRoot:      text(func(a *domain.AppSettings) *string { return &a.ObjectStore.Root }),
	keyObjectBucket:    text(func(a *domain.AppSettings) *string { return &a.ObjectStore.Bucket }),
	keyObjectRegion:    text(func(a *domain.AppSettings) *string { return &a.ObjectStore.Region }),
	keyObjectEndpoint:  text(func(a *domain.AppSettings) *string { return &a.ObjectStore.Endpoint }),
	keyObjectAccessKey: text(func(a *domain.AppSettings) *string { return &a.ObjectStore.AccessKey }),
	keyObjectSecretKey: text(func(a *domain.AppSettings) *string { return &a.ObjectStore.SecretKey }),

	keyStorageBackend: text(func(a *domain.AppSettings) *domain.StorageBackend { return &a.Storage.Backend }),
	keyStorageDataDir: text(func(a *domain.AppSettings) *string { return &a.Storage.DataDir }),

	keyStatusBackend: text(func(a *domain.AppSettings) *domain.StatusBackend { return &a.Status.Backend }),
	keyRedisAddr:     text(func(a *domain.AppSettings) *string { return &a.Status.Redis.Addr }),
	keyRedisPassword: text(func(a *domain.AppSettings) *string { return &a.Status.Redis.Password }),
	keyRedisDB:       number(func(a *domain.AppSettings) *int { return &a.Status.Redis.DB }),

	keyChunkSize:    number(func(a *domain.AppSettings) *int { return &a.Ingest.ChunkSize }),
	keyChunkOverlap: number(func(a *domain.AppSettings) *int { return &a.Ingest.ChunkOverlap }),
	keyConcurrency:  number(func(a *domain.AppSettings) *int { return &a.Ingest.Concurrency }),
	keyRateLimit:    decimal(func(a *domain.AppSettings) *float64 { return &a.Ingest.RateLimit }),

	keyTopK:            number(func(a *domain.AppSettings) *int { return &a.Retrieval.TopK }),
	keyMinScore:        decimal(func(a *domain.AppSettings) *float64 { return &a.Retrieval.MinScore }),
	keyMaxContextChars: number(func(a *domain.AppSettings) *int { return &a.Retrieval.MaxContextChars }),

	keyServerAddr: text(func(a *domain.AppSettings) *string { return &a.Server.Addr }),
	keyLogLevel:   text(func(a *domain.AppSettings) *string { return &a.Log.Level }),
	keyLogPretty:  boolean(func(a *domain.AppSettings) *bool { return &a.Log.Pretty }),
}

// SettingKeys returns every accepted config key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsSecretKey reports whether key holds a credential that should be masked.
func IsSecretKey(key string) bool {
	for _, suffix := range []string{"api_key", "secret_key", "password"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// coerce converts a value typed on the command line or read from a file to
// kind. Strings are parsed; numbers and booleans pass through when they
// already have the right type.
func coerce(kind settingKind, value any) (any, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		switch kind {
		case kindInt:
			return strconv.Atoi(s)
		case kindFloat:
			return strconv.ParseFloat(s, 64)
		case kindBool:
			return strconv.ParseBool(s)
		default:
			return value, nil
		}
	}

	switch v := value.(type) {
	case int:
		switch kind {
		case kindInt:
			return v, nil
		case kindFloat:
			return float64(v), nil
		}
	case float64:
		if kind == kindFloat {
			return v, nil
		}
	case bool:
		if kind == kindBool {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unexpected value type %T", value)
}
