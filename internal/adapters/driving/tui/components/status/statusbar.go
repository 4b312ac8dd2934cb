// Package status renders the one-line bar under the chat transcript.
package status

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

// State is what the open chat is doing.
type State string

const (
	StateReady     State = "ready"
	StateLoading   State = "loading"
	StateStreaming State = "streaming"
	StateWarning   State = "warning"
	StateError     State = "error"
)

const defaultWidth = 80

// Bar shows the chat state on the left and key hints on the right. It has
// no input handling of its own; the chat view drives it through setters.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	document string
	width    int
}

// NewBar returns a ready bar. Nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: defaultWidth}
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left, right := b.label(), b.hints()
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) label() string {
	st := b.styles
	switch b.state {
	case StateLoading:
		return st.Muted.Render("Loading...")
	case StateStreaming:
		return st.Streaming.Render("Answering...")
	case StateWarning:
		return st.Warning.Render(withDetail("Warning", b.message))
	case StateError:
		return st.Error.Render(withDetail("Error", b.message))
	}
	if b.document == "" {
		return st.Muted.Render("Ready")
	}
	return st.Normal.Render(b.document)
}

func withDetail(prefix, detail string) string {
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}

func (b *Bar) hints() string {
	ctx := keymap.ContextList
	if b.document != "" {
		ctx = keymap.ContextChat
	}
	return b.styles.Muted.Render(keymap.Format(b.keymap.Hints(ctx), " | "))
}

func (b *Bar) SetState(state State) { b.state = state }
func (b *Bar) State() State         { return b.state }

// SetMessage sets the detail shown with the warning and error states.
func (b *Bar) SetMessage(message string) { b.message = message }
func (b *Bar) Message() string           { return b.message }

// SetDocument names the open chat's document. Empty means the chat list
// has focus, which switches the key hints.
func (b *Bar) SetDocument(name string) { b.document = name }
func (b *Bar) Document() string        { return b.document }

func (b *Bar) SetWidth(width int) { b.width = width }
func (b *Bar) Width() int         { return b.width }

// Clear drops the state and message but keeps the document.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}
