package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	matches []domain.VectorMatch
	err     error
}

func (m *mockRetrievalService) RetrieveContext(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if len(m.matches) == 0 {
		return "", nil
	}
	return m.matches[0].Metadata.Text, nil
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _, _ string) ([]domain.VectorMatch, error) {
	return m.matches, m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	conversations []domain.Conversation
	messages      []domain.Message
	err           error
}

func (m *mockConversationService) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", m.err
}

func (m *mockConversationService) CreateConversation(_ context.Context, _, _ string) (domain.Conversation, error) {
	return domain.Conversation{}, m.err
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

func (m *mockConversationService) ListMessages(_ context.Context, _ int64) ([]domain.Message, error) {
	return m.messages, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	deltas []string
	err    error
	prior  []domain.Message
	key    string
}

func (m *mockChatService) StreamAnswer(
	_ context.Context,
	_ int64,
	prior []domain.Message,
	_ string,
	documentKey string,
) (<-chan domain.StreamChunk, <-chan error) {
	m.prior = prior
	m.key = documentKey

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
