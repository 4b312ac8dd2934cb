package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[int64]domain.Conversation
	messages      map[int64][]domain.Message
	nextConvID    int64
	nextMsgID     int64
	now           func() time.Time
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[int64]domain.Conversation),
		messages:      make(map[int64][]domain.Message),
		now:           time.Now,
	}
}

// CreateConversation assigns an id and creation time.
func (s *ConversationStore) CreateConversation(
	_ context.Context,
	conv domain.Conversation,
) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConvID++
	conv.ID = s.nextConvID
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = s.now().UTC()
	}
	s.conversations[conv.ID] = conv
	return conv, nil
}

// GetConversation retrieves a conversation by id.
func (s *ConversationStore) GetConversation(_ context.Context, id int64) (domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return conv, nil
}

// ListConversations returns all conversations, newest first.
func (s *ConversationStore) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// AppendMessages stores msgs atomically in the given order.
func (s *ConversationStore) AppendMessages(_ context.Context, conversationID int64, msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return domain.ErrNotFound
	}

	now := s.now().UTC()
	for i, m := range msgs {
		s.nextMsgID++
		m.ID = s.nextMsgID
		m.ConversationID = conversationID
		// Distinct timestamps keep creation order stable under equal clocks
		m.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		s.messages[conversationID] = append(s.messages[conversationID], m)
	}
	return nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *ConversationStore) ListMessages(_ context.Context, conversationID int64) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, domain.ErrNotFound
	}

	msgs := make([]domain.Message, len(s.messages[conversationID]))
	copy(msgs, s.messages[conversationID])
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}
