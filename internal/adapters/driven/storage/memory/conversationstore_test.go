package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestConversationStore_CreateAndGet(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, domain.Conversation{
		DocumentKey:  "uploads/1700000000000report.pdf",
		DocumentName: "report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), conv.ID)
	assert.False(t, conv.CreatedAt.IsZero())

	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	_, err = store.GetConversation(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_ListNewestFirst(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.CreateConversation(ctx, domain.Conversation{
			DocumentKey: "k",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	list, err := store.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestConversationStore_AppendMessages_PreservesOrder(t *testing.T) {
	store := NewConversationStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, domain.Conversation{DocumentKey: "k"})
	require.NoError(t, err)

	require.NoError(t, store.AppendMessages(ctx, conv.ID,
		domain.Message{Role: domain.RoleUser, Content: "What is the capital of France?"},
		domain.Message{Role: domain.RoleAssistant, Content: "Paris is the capital of France."},
	))
	require.NoError(t, store.AppendMessages(ctx, conv.ID,
		domain.Message{Role: domain.RoleUser, Content: "And Spain?"},
		domain.Message{Role: domain.RoleAssistant, Content: "Madrid."},
	))

	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	roles := []domain.Role{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role}
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAssistant, domain.RoleUser, domain.RoleAssistant}, roles)
	assert.Equal(t, "Paris is the capital of France.", msgs[1].Content)
	assert.Equal(t, conv.ID, msgs[0].ConversationID)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))
}

func TestConversationStore_UnknownConversation(t *testing.T) {
	store := NewConversationStore()
	ctx := context.Background()

	err := store.AppendMessages(ctx, 7, domain.Message{Role: domain.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.ListMessages(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusStore_SaveAndGet(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, domain.IngestStatus{DocumentKey: "doc", State: domain.IngestStateFetched}))
	require.NoError(t, store.Save(ctx, domain.IngestStatus{DocumentKey: "doc", State: domain.IngestStateDone, Chunks: 5}))

	got, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestStateDone, got.State)
	assert.Equal(t, 5, got.Chunks)
	assert.Equal(t, []domain.IngestState{domain.IngestStateFetched, domain.IngestStateDone}, store.History("doc"))
}
