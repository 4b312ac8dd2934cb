package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ConversationService manages uploads, conversations and their history.
type ConversationService interface {
	// Upload stores a file and returns its storage key.
	Upload(ctx context.Context, fileName string, r io.Reader) (string, error)

	// CreateConversation ingests the document and opens a conversation on it.
	CreateConversation(ctx context.Context, documentKey, documentName string) (domain.Conversation, error)

	// GetConversation returns domain.ErrNotFound if id is unknown.
	GetConversation(ctx context.Context, id int64) (domain.Conversation, error)

	// ListConversations returns all conversations, newest first.
	ListConversations(ctx context.Context) ([]domain.Conversation, error)

	// ListMessages returns a conversation's messages in creation order.
	ListMessages(ctx context.Context, conversationID int64) ([]domain.Message, error)
}
