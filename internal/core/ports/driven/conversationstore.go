package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ConversationStore persists conversations and their messages.
// Messages are append-only.
type ConversationStore interface {
	// CreateConversation inserts conv and returns it with ID and CreatedAt set.
	CreateConversation(ctx context.Context, conv domain.Conversation) (domain.Conversation, error)

	// GetConversation returns domain.ErrNotFound if id is unknown.
	GetConversation(ctx context.Context, id int64) (domain.Conversation, error)

	// ListConversations returns all conversations, newest first.
	ListConversations(ctx context.Context) ([]domain.Conversation, error)

	// AppendMessages stores msgs in the given order under conversationID.
	// Creation timestamps are assigned so that listing preserves that order.
	AppendMessages(ctx context.Context, conversationID int64, msgs ...domain.Message) error

	// ListMessages returns the conversation's messages ordered by creation time.
	ListMessages(ctx context.Context, conversationID int64) ([]domain.Message, error)
}
