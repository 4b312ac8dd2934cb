package tui

import (
	"context"
	"io"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// MockConversationService implements driving.ConversationService for testing.
type MockConversationService struct {
	ListFunc     func(ctx context.Context) ([]domain.Conversation, error)
	GetFunc      func(ctx context.Context, id int64) (domain.Conversation, error)
	MessagesFunc func(ctx context.Context, id int64) ([]domain.Message, error)
}

func (m *MockConversationService) Upload(context.Context, string, io.Reader) (string, error) {
	return "", nil
}

func (m *MockConversationService) CreateConversation(context.Context, string, string) (domain.Conversation, error) {
	return domain.Conversation{}, nil
}

func (m *MockConversationService) GetConversation(ctx context.Context, id int64) (domain.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return domain.Conversation{ID: id, DocumentKey: "uploads/1report.pdf", DocumentName: "report.pdf"}, nil
}

func (m *MockConversationService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockConversationService) ListMessages(ctx context.Context, id int64) ([]domain.Message, error) {
	if m.MessagesFunc != nil {
		return m.MessagesFunc(ctx, id)
	}
	return nil, nil
}

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	Deltas []string
	Err    error
}

func (m *MockChatService) StreamAnswer(
	_ context.Context, _ int64, _ []domain.Message, _, _ string,
) (<-chan domain.StreamChunk, <-chan error) {
	out := make(chan domain.StreamChunk, len(m.Deltas))
	errs := make(chan error, 1)
	for _, d := range m.Deltas {
		out <- domain.StreamChunk{Role: domain.RoleAssistant, Content: d}
	}
	if m.Err != nil {
		errs <- m.Err
	}
	close(errs)
	close(out)
	return out, errs
}
