package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// mockConversationService implements driving.ConversationService.
type mockConversationService struct {
	conversations map[int64]domain.Conversation
	messages      map[int64][]domain.Message
	uploaded      map[string][]byte
	createErr     error
	created       []string
}

func newMockConversationService() *mockConversationService {
	return &mockConversationService{
		conversations: map[int64]domain.Conversation{
			1: {ID: 1, DocumentKey: "uploads/1714564800000report.pdf", DocumentName: "report.pdf", CreatedAt: testTime},
		},
		messages: map[int64][]domain.Message{
			1: {
				{ID: 1, ConversationID: 1, Role: domain.RoleUser, Content: "What is this?", CreatedAt: testTime},
				{ID: 2, ConversationID: 1, Role: domain.RoleAssistant, Content: "A quarterly report.", CreatedAt: testTime},
			},
		},
		uploaded: make(map[string][]byte),
	}
}

func (m *mockConversationService) Upload(_ context.Context, fileName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "uploads/1714564800000" + fileName
	m.uploaded[key] = data
	return key, nil
}

func (m *mockConversationService) CreateConversation(
	_ context.Context, documentKey, documentName string,
) (domain.Conversation, error) {
	if m.createErr != nil {
		return domain.Conversation{}, m.createErr
	}
	m.created = append(m.created, documentKey)
	if documentName == "" {
		documentName = "doc.pdf"
	}
	conv := domain.Conversation{
		ID:           int64(len(m.conversations) + 1),
		DocumentKey:  documentKey,
		DocumentName: documentName,
		CreatedAt:    testTime,
	}
	m.conversations[conv.ID] = conv
	return conv, nil
}

func (m *mockConversationService) GetConversation(_ context.Context, id int64) (domain.Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return conv, nil
}

func (m *mockConversationService) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	out := make([]domain.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockConversationService) ListMessages(_ context.Context, id int64) ([]domain.Message, error) {
	return m.messages[id], nil
}

// mockIngestionService implements driving.IngestionService.
type mockIngestionService struct {
	errs     []error
	calls    []driving.IngestOptions
	statuses map[string]domain.IngestStatus
}

func (m *mockIngestionService) Ingest(
	_ context.Context, key string, opts driving.IngestOptions,
) (domain.Chunk, error) {
	m.calls = append(m.calls, opts)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return domain.Chunk{}, err
		}
	}
	return domain.Chunk{ID: "c1", PageNumber: 1, Text: "Quarterly revenue grew."}, nil
}

func (m *mockIngestionService) Status(_ context.Context, key string) (domain.IngestStatus, error) {
	s, ok := m.statuses[key]
	if !ok {
		return domain.IngestStatus{}, domain.ErrNotFound
	}
	return s, nil
}

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	matches []domain.VectorMatch
	err     error
}

func (m *mockRetrievalService) RetrieveContext(ctx context.Context, query, key string) (string, error) {
	matches, err := m.Retrieve(ctx, query, key)
	if err != nil {
		return "", err
	}
	text := ""
	for _, mt := range matches {
		text += mt.Metadata.Text
	}
	return text, nil
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _, _ string) ([]domain.VectorMatch, error) {
	return m.matches, m.err
}

// mockChatService implements driving.ChatService.
type mockChatService struct {
	deltas []string
	err    error
	asked  []string
}

func (m *mockChatService) StreamAnswer(
	_ context.Context, _ int64, _ []domain.Message, userText, _ string,
) (<-chan domain.StreamChunk, <-chan error) {
	m.asked = append(m.asked, userText)
	out := make(chan domain.StreamChunk, len(m.deltas))
	errs := make(chan error, 1)
	for _, d := range m.deltas {
		out <- domain.StreamChunk{Role: domain.RoleAssistant, Content: d}
	}
	close(out)
	if m.err != nil {
		errs <- m.err
	}
	close(errs)
	return out, errs
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]any
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]any)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if key == "unknown.key" {
		return errors.New("invalid input: unknown setting")
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	conversation *mockConversationService
	ingestion    *mockIngestionService
	retrieval    *mockRetrievalService
	chat         *mockChatService
	settings     *mockSettingsService
}

var mocks *testServices

// setupTestServices installs fresh mocks and returns a function restoring
// the previous services.
func setupTestServices() func() {
	old := Services{
		Conversation: conversationService,
		Ingestion:    ingestionService,
		Retrieval:    retrievalService,
		Chat:         chatService,
		Settings:     settingsService,
		Metrics:      metricsCollector,
	}

	mocks = &testServices{
		conversation: newMockConversationService(),
		ingestion: &mockIngestionService{statuses: map[string]domain.IngestStatus{
			"uploads/1714564800000report.pdf": {
				DocumentKey: "uploads/1714564800000report.pdf",
				Namespace:   domain.Namespace("uploads/1714564800000report.pdf"),
				State:       domain.IngestStateDone,
				Chunks:      12,
				Batches:     2,
				Vectors:     12,
				UpdatedAt:   testTime,
			},
		}},
		retrieval: &mockRetrievalService{matches: []domain.VectorMatch{
			{ID: "a", Score: 0.91, Metadata: domain.ChunkMetadata{PageNumber: 3, Text: "Revenue grew 12%."}},
		}},
		chat:     &mockChatService{deltas: []string{"Revenue ", "grew ", "12%."}},
		settings: newMockSettingsService(),
	}

	SetServices(Services{
		Conversation: mocks.conversation,
		Ingestion:    mocks.ingestion,
		Retrieval:    mocks.retrieval,
		Chat:         mocks.chat,
		Settings:     mocks.settings,
	})

	return func() {
		SetServices(old)
		mocks = nil
	}
}
