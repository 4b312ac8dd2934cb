// Package app builds the docchat services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/docchat/internal/adapters/driven/objectstore/filesystem"
	"github.com/custodia-labs/docchat/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/vectorstore/pinecone"
	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
	"github.com/custodia-labs/docchat/internal/postprocessors"
)

// Directories created under the config directory when settings leave them empty.
const (
	dataDirName    = "data"
	objectsDirName = "objects"
	promptsDirName = "prompts"
)

// ErrUnknownBackend is returned when settings name a backend that does not exist.
var ErrUnknownBackend = errors.New("unknown backend")

// Bootstrap builds every service from the settings in configDir. An empty
// configDir means ~/.docchat. The returned cleanup closes clients and stores
// in reverse order of creation.
func Bootstrap(ctx context.Context, configDir string) (cli.Services, func(), error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return cli.Services{}, nil, err
		}
		configDir = dir
	}

	b := &builder{configDir: configDir}
	svcs, err := b.build(ctx)
	if err != nil {
		b.close()
		return cli.Services{}, nil, err
	}
	return svcs, b.close, nil
}

type builder struct {
	configDir string
	closers   []func()
	sqlite    *sqlite.Store
}

func (b *builder) onClose(fn func()) {
	b.closers = append(b.closers, fn)
}

func (b *builder) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func (b *builder) build(_ context.Context) (cli.Services, error) {
	fileStore, err := file.NewConfigStore(b.configDir)
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening config: %w", err)
	}
	overlay, err := env.New(fileStore, ".env", filepath.Join(b.configDir, ".env"))
	if err != nil {
		return cli.Services{}, fmt.Errorf("reading env files: %w", err)
	}

	settingsService := services.NewSettingsService(overlay, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return cli.Services{}, fmt.Errorf("loading settings: %w", err)
	}

	logger.Configure(logger.Config{Level: settings.Log.Level, Pretty: settings.Log.Pretty})
	log := logger.With("app")

	aiServices := ai.Init(settings)
	b.onClose(aiServices.Close)
	for _, w := range aiServices.Warnings {
		log.Warn().Msg(w)
	}

	vectors, err := b.vectorStore(settings)
	if err != nil {
		return cli.Services{}, err
	}
	objects, err := b.objectStore(settings)
	if err != nil {
		return cli.Services{}, err
	}
	conversations, err := b.conversationStore(settings)
	if err != nil {
		return cli.Services{}, err
	}
	statuses, err := b.statusStore(settings)
	if err != nil {
		return cli.Services{}, err
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chunker, err := registry.Build(postprocessors.DefaultChunker, map[string]any{
		"chunk_size": settings.Ingest.ChunkSize,
		"overlap":    settings.Ingest.ChunkOverlap,
	})
	if err != nil {
		return cli.Services{}, fmt.Errorf("building chunker: %w", err)
	}

	if err := pdf.CheckAvailable(); err != nil {
		log.Warn().Err(err).Msg("uploads cannot be indexed until pdftotext is installed")
	}

	prompts, err := file.NewPromptStore(filepath.Join(b.configDir, promptsDirName))
	if err != nil {
		return cli.Services{}, fmt.Errorf("opening prompts: %w", err)
	}

	m := metrics.New()
	index := services.NewVectorIndex(vectors, settings.VectorStore.BatchSize)

	ingestion := services.NewIngestionService(
		objects,
		pdf.New(),
		chunker,
		aiServices.EmbeddingService,
		index,
		statuses,
		services.IngestionConfig{
			Concurrency: settings.Ingest.Concurrency,
			RateLimit:   settings.Ingest.RateLimit,
		},
	)
	ingestion.SetMetrics(m)

	retrieval := services.NewRetrievalService(aiServices.EmbeddingService, index, services.RetrievalConfig{
		TopK:            settings.Retrieval.TopK,
		MinScore:        settings.Retrieval.MinScore,
		MaxContextChars: settings.Retrieval.MaxContextChars,
	})
	retrieval.SetMetrics(m)

	chat := services.NewChatService(retrieval, aiServices.LLMService, conversations, driven.ChatOptions{})
	chat.SetPromptStore(prompts)
	chat.SetMetrics(m)

	conversation := services.NewConversationService(objects, ingestion, conversations)
	conversation.SetRetryPolicy(services.DefaultRetryPolicy())

	log.Debug().
		Str("vectors", string(settings.VectorStore.Backend)).
		Str("objects", string(settings.ObjectStore.Backend)).
		Str("storage", string(settings.Storage.Backend)).
		Str("status", string(settings.Status.Backend)).
		Msg("services ready")

	return cli.Services{
		Conversation: conversation,
		Ingestion:    ingestion,
		Retrieval:    retrieval,
		Chat:         chat,
		Settings:     settingsService,
		Metrics:      m,
	}, nil
}

// sqliteStore opens the shared database on first use.
func (b *builder) sqliteStore(settings *domain.AppSettings) (*sqlite.Store, error) {
	if b.sqlite != nil {
		return b.sqlite, nil
	}
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(b.configDir, dataDirName)
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	b.sqlite = store
	b.onClose(func() { _ = store.Close() })
	return store, nil
}

func (b *builder) vectorStore(settings *domain.AppSettings) (driven.VectorStore, error) {
	switch settings.VectorStore.Backend {
	case domain.VectorBackendMemory:
		return vectormemory.NewStore(), nil
	case domain.VectorBackendSQLite, "":
		store, err := b.sqliteStore(settings)
		if err != nil {
			return nil, err
		}
		return store.VectorStore(), nil
	case domain.VectorBackendPinecone:
		store, err := pinecone.NewStore(pinecone.Config{
			Host:   settings.VectorStore.Pinecone.Host,
			APIKey: settings.VectorStore.Pinecone.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to pinecone: %w", err)
		}
		b.onClose(func() { _ = store.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("vector store %q: %w", settings.VectorStore.Backend, ErrUnknownBackend)
	}
}

func (b *builder) objectStore(settings *domain.AppSettings) (driven.ObjectStore, error) {
	cfg := settings.ObjectStore
	switch cfg.Backend {
	case domain.ObjectBackendFilesystem, "":
		root := cfg.Root
		if root == "" {
			root = filepath.Join(b.configDir, objectsDirName)
		}
		return filesystem.NewStore(root)
	case domain.ObjectBackendS3:
		return s3.NewStore(s3.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	default:
		return nil, fmt.Errorf("object store %q: %w", cfg.Backend, ErrUnknownBackend)
	}
}

func (b *builder) conversationStore(settings *domain.AppSettings) (driven.ConversationStore, error) {
	switch settings.Storage.Backend {
	case domain.StorageBackendMemory:
		return memory.NewConversationStore(), nil
	case domain.StorageBackendSQLite, "":
		store, err := b.sqliteStore(settings)
		if err != nil {
			return nil, err
		}
		return store.ConversationStore(), nil
	default:
		return nil, fmt.Errorf("storage %q: %w", settings.Storage.Backend, ErrUnknownBackend)
	}
}

func (b *builder) statusStore(settings *domain.AppSettings) (driven.IngestionStatusStore, error) {
	switch settings.Status.Backend {
	case domain.StatusBackendMemory, "":
		return memory.NewStatusStore(), nil
	case domain.StatusBackendRedis:
		store := redis.NewStatusStore(redis.Options{
			Address:  settings.Status.Redis.Addr,
			Password: settings.Status.Redis.Password,
			DB:       settings.Status.Redis.DB,
		})
		b.onClose(func() { _ = store.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("status store %q: %w", settings.Status.Backend, ErrUnknownBackend)
	}
}
