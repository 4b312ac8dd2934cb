package httpapi

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

type mockConversationService struct {
	mu            sync.Mutex
	conversations []domain.Conversation
	messages      []domain.Message
	uploaded      map[string][]byte
	uploadErr     error
	createErr     error
	err           error
}

func newMockConversationService() *mockConversationService {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &mockConversationService{
		conversations: []domain.Conversation{
			{ID: 1, DocumentKey: "uploads/1714564800000report.pdf", DocumentName: "report.pdf", CreatedAt: created},
		},
		messages: []domain.Message{
			{ID: 10, ConversationID: 1, Role: domain.RoleUser, Content: "What grew?", CreatedAt: created},
			{ID: 11, ConversationID: 1, Role: domain.RoleAssistant, Content: "Revenue grew 12%.", CreatedAt: created},
		},
		uploaded: make(map[string][]byte),
	}
}

func (m *mockConversationService) Upload(_ context.Context, fileName string, r io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "uploads/1714564800000" + fileName
	m.mu.Lock()
	m.uploaded[key] = data
	m.mu.Unlock()
	return key, nil
}

func (m *mockConversationService) CreateConversation(_ context.Context, key, name string) (domain.Conversation, error) {
	if m.createErr != nil {
		return domain.Conversation{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	conv := domain.Conversation{ID: int64(len(m.conversations) + 1), DocumentKey: key, DocumentName: name}
	m.conversations = append(m.conversations, conv)
	return conv, nil
}

func (m *mockConversationService) GetConversation(_ context.Context, id int64) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	for _, c := range m.conversations {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Conversation{}, domain.ErrNotFound
}

func (m *mockConversationService) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	return m.conversations, m.err
}

func (m *mockConversationService) ListMessages(_ context.Context, id int64) ([]domain.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.ConversationID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

type mockIngestionService struct {
	statuses map[string]domain.IngestStatus
}

func (m *mockIngestionService) Ingest(_ context.Context, _ string, _ driving.IngestOptions) (domain.Chunk, error) {
	return domain.Chunk{}, nil
}

func (m *mockIngestionService) Status(_ context.Context, key string) (domain.IngestStatus, error) {
	st, ok := m.statuses[key]
	if !ok {
		return domain.IngestStatus{}, domain.ErrNotFound
	}
	return st, nil
}

// mockChatService emits deltas and then err, if any.
type mockChatService struct {
	deltas []string
	err    error
	prior  []domain.Message
	text   string
	key    string
}

func (m *mockChatService) StreamAnswer(
	_ context.Context,
	_ int64,
	prior []domain.Message,
	userText string,
	documentKey string,
) (<-chan domain.StreamChunk, <-chan error) {
	m.prior = prior
	m.text = userText
	m.key = documentKey

	out := make(chan domain.StreamChunk, len(m.deltas))
	errs := make(chan error, 1)
	for _, d := range m.deltas {
		out <- domain.StreamChunk{Role: domain.RoleAssistant, Content: d}
	}
	if m.err != nil {
		errs <- m.err
	}
	close(errs)
	close(out)
	return out, errs
}
