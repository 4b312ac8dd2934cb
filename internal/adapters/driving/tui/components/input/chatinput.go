// Package input is the question line under a chat transcript.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

const (
	maxQuestionLen = 2000
	defaultWidth   = 60
	minFieldWidth  = 20
	// chrome is the room taken by the label, padding and border.
	chrome = 12

	askPlaceholder  = "Ask a question about the document..."
	waitPlaceholder = "Waiting for the answer, esc to stop..."
)

// ChatInput is a labelled single-line text field.
type ChatInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int
}

// NewChatInput returns a focused, empty input. A nil style set uses the
// defaults.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	c := &ChatInput{field: textinput.New(), styles: s, width: defaultWidth}
	c.field.Placeholder = askPlaceholder
	c.field.CharLimit = maxQuestionLen
	c.field.Width = defaultWidth
	c.field.Focus()
	return c
}

func (c *ChatInput) Init() tea.Cmd { return textinput.Blink }

func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.field, cmd = c.field.Update(msg)
	return c, cmd
}

func (c *ChatInput) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center, //nolint:misspell // lipgloss API name
		c.styles.UserLabel.Render("You: "),
		c.styles.InputField.Render(c.field.View()),
	)
}

// Value is the raw text.
func (c *ChatInput) Value() string { return c.field.Value() }

// Question is the text without surrounding whitespace; "" means nothing to
// send.
func (c *ChatInput) Question() string { return strings.TrimSpace(c.field.Value()) }

func (c *ChatInput) SetValue(s string) { c.field.SetValue(s) }

// SetWaiting swaps the placeholder while an answer streams. Typing still
// works so the next question can be drafted.
func (c *ChatInput) SetWaiting(waiting bool) {
	c.field.Placeholder = askPlaceholder
	if waiting {
		c.field.Placeholder = waitPlaceholder
	}
}

// Placeholder is the hint shown in an empty field.
func (c *ChatInput) Placeholder() string { return c.field.Placeholder }

func (c *ChatInput) Focus() tea.Cmd { return c.field.Focus() }
func (c *ChatInput) Blur()          { c.field.Blur() }
func (c *ChatInput) Focused() bool  { return c.field.Focused() }

// SetWidth fits the field into width columns, never narrower than
// minFieldWidth.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	c.field.Width = max(width-chrome, minFieldWidth)
}

func (c *ChatInput) Width() int { return c.width }

// Reset empties the field.
func (c *ChatInput) Reset() { c.field.Reset() }
