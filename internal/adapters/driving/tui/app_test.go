package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Conversation: &MockConversationService{
			ListFunc: func(context.Context) ([]domain.Conversation, error) {
				return []domain.Conversation{{ID: 1, DocumentKey: "uploads/1report.pdf", DocumentName: "report.pdf"}}, nil
			},
		},
		Chat: &MockChatService{Deltas: []string{"Revenue ", "grew."}},
	}
}

func newTestApp(t *testing.T, chatID int64) *App {
	t.Helper()
	app, err := NewApp(newTestPorts(), chatID)
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts(), 0)

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewChats, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_WithChatID(t *testing.T) {
	app, err := NewApp(newTestPorts(), 1)

	require.NoError(t, err)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestNewApp_WithStyles(t *testing.T) {
	light := styles.New(styles.Light)

	app, err := NewApp(newTestPorts(), 0, WithStyles(light), WithStyles(nil))

	require.NoError(t, err)
	assert.Same(t, light, app.styles)
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Chat: &MockChatService{}}, 0)

	assert.ErrorIs(t, err, ErrMissingConversationService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts(), 0)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts(), 0)

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := NewApp(newTestPorts(), 0)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts(), 0)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 100, app.width)
}

func TestApp_LoadChat(t *testing.T) {
	app := newTestApp(t, 1)

	msg := app.openByID(1)()

	selected, ok := msg.(messages.ChatSelected)
	require.True(t, ok)
	assert.Equal(t, int64(1), selected.Conversation.ID)
}

func TestApp_LoadChat_NotFound(t *testing.T) {
	ports := newTestPorts()
	ports.Conversation.(*MockConversationService).GetFunc = func(context.Context, int64) (domain.Conversation, error) {
		return domain.Conversation{}, domain.ErrNotFound
	}
	app, err := NewApp(ports, 7)
	require.NoError(t, err)
	app.SetDimensions(80, 24)

	_, cmd := app.Update(app.openByID(7)())

	require.Error(t, app.Err())
	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Equal(t, messages.ViewChats, app.CurrentView())
	assert.NotNil(t, cmd, "falls back to loading the chat list")
	assert.Contains(t, app.View(), "loading chat 7")
}

func TestApp_ChatSelected_OpensChat(t *testing.T) {
	app := newTestApp(t, 0)
	conv := domain.Conversation{ID: 1, DocumentKey: "uploads/1report.pdf", DocumentName: "report.pdf"}

	_, cmd := app.Update(messages.ChatSelected{Conversation: conv})

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, conv, app.OpenConversation())
	assert.Contains(t, app.View(), "Chat #1")
}

func TestApp_AskAndStream(t *testing.T) {
	app := newTestApp(t, 0)
	conv := domain.Conversation{ID: 1, DocumentKey: "uploads/1report.pdf"}
	app.Update(messages.ChatSelected{Conversation: conv})
	app.Update(messages.HistoryLoaded{ConversationID: 1})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("What grew?")})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for i := 0; cmd != nil && i < 10; i++ {
		_, cmd = app.Update(cmd())
	}

	assert.Contains(t, app.View(), "Revenue grew.")
}

func TestApp_ViewChanged_BackToChats(t *testing.T) {
	app := newTestApp(t, 0)
	app.Update(messages.ChatSelected{Conversation: domain.Conversation{ID: 1}})

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewChats})

	assert.Equal(t, messages.ViewChats, app.CurrentView())
	require.NotNil(t, cmd)
	loaded, ok := cmd().(messages.ChatsLoaded)
	require.True(t, ok)
	assert.Len(t, loaded.Chats, 1)
}

func TestApp_ChatsLoaded_Rendered(t *testing.T) {
	app := newTestApp(t, 0)

	app.Update(messages.ChatsLoaded{Chats: []domain.Conversation{{ID: 3, DocumentName: "q3.pdf"}}})

	assert.Contains(t, app.View(), "q3.pdf")
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, 0)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "Help")
	assert.Contains(t, app.View(), "send")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChats, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"quit message", messages.Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, 0)

			_, cmd := app.Update(tt.msg)

			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}
