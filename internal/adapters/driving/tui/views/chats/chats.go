// Package chats is the conversation list shown when the TUI starts.
package chats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

const (
	// chrome is the number of lines around the rows: title, blanks and hints.
	chrome     = 5
	minNameLen = 10
	dateLayout = "2006-01-02 15:04"
)

var errNoService = errors.New("conversation service not available")

// View lists conversations, newest first, and scrolls when they do not fit.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	svc    driving.ConversationService

	items  []domain.Conversation
	cursor int
	offset int

	width, height int
	ready         bool
	loading       bool
	err           error
}

// NewView returns an empty list. A nil style set uses the defaults.
func NewView(s *styles.Styles, svc driving.ConversationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:    context.Background(),
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		svc:    svc,
	}
}

// SetContext sets the context passed to ListConversations.
func (v *View) SetContext(ctx context.Context) { v.ctx = ctx }

// Init starts loading the list.
func (v *View) Init() tea.Cmd {
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	v.loading = true
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.ChatsLoaded{Err: errNoService}
		}
		items, err := svc.ListConversations(ctx)
		return messages.ChatsLoaded{Chats: items, Err: err}
	}
}

// Update applies window sizes, key presses and load results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.ChatsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.items = msg.Chats
			v.move(0)
		}
	case tea.KeyMsg:
		return v, v.onKey(msg.String())
	}
	return v, nil
}

func (v *View) onKey(pressed string) tea.Cmd {
	k := v.keys
	switch {
	case keymap.Matches(pressed, k.Up):
		v.move(-1)
	case keymap.Matches(pressed, k.Down):
		v.move(1)
	case keymap.Matches(pressed, k.Select):
		if v.cursor >= len(v.items) {
			return nil
		}
		conv := v.items[v.cursor]
		return func() tea.Msg { return messages.ChatSelected{Conversation: conv} }
	case keymap.Matches(pressed, k.Reload):
		return v.reload()
	case keymap.Matches(pressed, k.Help):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case keymap.Matches(pressed, k.Quit):
		return func() tea.Msg { return messages.Quit{} }
	}
	return nil
}

// move shifts the cursor by delta, clamps it to the list and keeps it on
// screen.
func (v *View) move(delta int) {
	v.cursor = min(max(v.cursor+delta, 0), max(len(v.items)-1, 0))

	rows := v.rows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+rows {
		v.offset = v.cursor - rows + 1
	}
	v.offset = min(v.offset, max(len(v.items)-rows, 0))
}

// rows is how many conversations fit on screen.
func (v *View) rows() int {
	if v.height <= chrome {
		return max(len(v.items), 1)
	}
	return v.height - chrome
}

// View renders the title, the visible rows and the key hints.
func (v *View) View() string {
	hints := append(v.keys.Hints(keymap.ContextList), v.keys.Help)
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Chats"),
		"",
		v.body(),
		"",
		v.styles.Help.Render(keymap.Format(hints, "  ")),
	)
}

func (v *View) body() string {
	switch {
	case v.loading:
		return v.styles.Muted.Render("Loading chats...")
	case v.err != nil:
		return v.styles.Error.Render("Error: " + v.err.Error())
	case len(v.items) == 0:
		return v.styles.Muted.Render("No chats yet. Run 'docchat upload <file> --chat' to start one.")
	}

	end := min(v.offset+v.rows(), len(v.items))
	lines := make([]string, 0, end-v.offset)
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.row(v.items[i], i == v.cursor))
	}
	return strings.Join(lines, "\n")
}

// row renders "#id name  date", truncating the name to the window width.
func (v *View) row(conv domain.Conversation, current bool) string {
	id := fmt.Sprintf("#%-4d", conv.ID)
	name := conv.DocumentName
	if name == "" {
		name = conv.DocumentKey
	}
	var date string
	if !conv.CreatedAt.IsZero() {
		date = conv.CreatedAt.Format(dateLayout)
	}
	name = truncate(name, max(v.width-len(id)-len(date)-8, minNameLen))

	if current {
		return v.styles.Selected.Render(fmt.Sprintf("> %s %s  %s", id, name, date))
	}
	return "  " + v.styles.Subtitle.Render(id) + " " + v.styles.Normal.Render(name) + "  " + v.styles.Muted.Render(date)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDimensions records the window size.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
	v.move(0)
}

// Chats returns the loaded conversations.
func (v *View) Chats() []domain.Conversation { return v.items }

// SelectedIndex returns the highlighted row.
func (v *View) SelectedIndex() int { return v.cursor }

// Offset is the index of the first visible row.
func (v *View) Offset() int { return v.offset }

// Err returns the last load error.
func (v *View) Err() error { return v.err }
