package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/chats"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// App routes messages between the chat list, the open chat and the help
// screen. Only the active view receives key presses.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	list *chats.View
	chat *chat.View

	startChat int64
	view      messages.ViewType
	err       error

	width, height int
	ready         bool
}

var _ tea.Model = (*App)(nil)

// Option configures an App.
type Option func(*options)

type options struct {
	styles *styles.Styles
}

// WithStyles renders the app with s instead of the dark theme.
func WithStyles(s *styles.Styles) Option {
	return func(o *options) {
		if s != nil {
			o.styles = s
		}
	}
}

// NewApp starts on the chat list, or directly in chat chatID when it is
// positive.
func NewApp(ports *Ports, chatID int64, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	o := options{styles: styles.DefaultStyles()}
	for _, opt := range opts {
		opt(&o)
	}

	h := help.New()
	h.Styles.FullKey = o.styles.Subtitle
	h.Styles.FullDesc = o.styles.Muted

	a := &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    o.styles,
		keymap:    keymap.DefaultKeyMap(),
		help:      h,
		list:      chats.NewView(o.styles, ports.Conversation),
		chat:      chat.NewView(o.styles, ports.Conversation, ports.Chat),
		startChat: chatID,
		view:      messages.ViewChats,
	}
	if chatID > 0 {
		a.view = messages.ViewChat
	}
	return a, nil
}

// WithContext bounds every service call and answer stream by ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.list.SetContext(ctx)
	a.chat.SetContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	title := tea.SetWindowTitle("docchat")
	if a.startChat > 0 {
		return tea.Batch(title, a.openByID(a.startChat))
	}
	return tea.Batch(title, a.list.Init())
}

func (a *App) openByID(id int64) tea.Cmd {
	ctx, conversations := a.ctx, a.ports.Conversation
	return func() tea.Msg {
		conv, err := conversations.GetConversation(ctx, id)
		if err != nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("loading chat %d: %w", id, err)}
		}
		return messages.ChatSelected{Conversation: conv}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a, a.onKey(msg)
	case messages.Quit:
		return a, a.quit()
	case messages.ChatSelected:
		a.err = nil
		a.view = messages.ViewChat
		return a, a.chat.Open(msg.Conversation)
	case messages.ViewChanged:
		return a, a.switchTo(msg.View)
	case messages.ErrorOccurred:
		a.err = msg.Err
		// a chat that never loaded has nothing to show
		if a.view == messages.ViewChat && a.chat.Conversation().ID == 0 {
			return a, a.switchTo(messages.ViewChats)
		}
		return a, nil
	case messages.ChatsLoaded:
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd
	}

	// stream increments, history and cursor blink belong to the chat view
	if a.view != messages.ViewChat {
		switch msg.(type) {
		case messages.HistoryLoaded, messages.AnswerChunk, messages.AnswerDone:
		default:
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a *App) onKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}
	var cmd tea.Cmd
	switch a.view {
	case messages.ViewChat:
		a.chat, cmd = a.chat.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || keymap.Matches(msg.String(), a.keymap.Help) {
			a.view = messages.ViewChats
		}
	default:
		a.list, cmd = a.list.Update(msg)
	}
	return cmd
}

func (a *App) switchTo(v messages.ViewType) tea.Cmd {
	a.view = v
	if v != messages.ViewChats {
		return nil
	}
	a.chat.Close()
	return a.list.Init()
}

func (a *App) quit() tea.Cmd {
	a.chat.Close()
	return tea.Quit
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.view == messages.ViewChat {
		return a.chat.View()
	}

	body := a.list.View()
	if a.view == messages.ViewHelp {
		body = a.helpView()
	}
	if a.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, a.styles.Error.Render("Error: "+a.err.Error()), "", body)
	}
	return body
}

func (a *App) helpView() string {
	extra := a.styles.Help.Render("pgup/pgdn  scroll the chat\nctrl+c     quit\n\n[esc] back")
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("Help"),
		"",
		a.help.FullHelpView(a.keymap.FullHelp()),
		"",
		extra,
	)
}

// CurrentView reports which view has focus.
func (a *App) CurrentView() messages.ViewType { return a.view }

// OpenConversation is the chat shown in the chat view, zero if none.
func (a *App) OpenConversation() domain.Conversation { return a.chat.Conversation() }

// Err is the last error reported by a view or service call.
func (a *App) Err() error { return a.err }

// Ready is true once the first window size has arrived.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes both views.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	a.list.SetDimensions(width, height)
	a.chat.SetDimensions(width, height)
}
