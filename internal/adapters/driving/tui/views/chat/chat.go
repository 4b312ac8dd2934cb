// Package chat provides the conversation view for the TUI: the transcript,
// the answer being streamed and the question input.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// chrome is the number of rows used by the title, input and status bar.
const chrome = 7

// View is a single conversation.
type View struct {
	ctx           context.Context
	styles        *styles.Styles
	keymap        *keymap.KeyMap
	conversations driving.ConversationService
	chat          driving.ChatService

	conv       domain.Conversation
	transcript []domain.Message
	loading    bool

	// answer in flight
	streaming bool
	stream    int
	pending   strings.Builder
	cancel    context.CancelFunc
	waiter    tea.Cmd

	input    *input.ChatInput
	status   *status.Bar
	viewport viewport.Model
	width    int
	height   int
	err      error
}

// NewView creates an empty chat view. Call Open to load a conversation.
func NewView(s *styles.Styles, conversations driving.ConversationService, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	return &View{
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		conversations: conversations,
		chat:          chat,
		input:         input.NewChatInput(s),
		status:        status.NewBar(s, km),
		viewport:      viewport.New(80, 24-chrome),
		width:         80,
		height:        24,
	}
}

// SetContext sets the parent context for service calls and answer streams.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Open switches to conv and loads its history. Any answer in flight is
// cancelled.
func (v *View) Open(conv domain.Conversation) tea.Cmd {
	v.stopStream()
	v.conv = conv
	v.transcript = nil
	v.err = nil
	v.loading = true
	v.input.Reset()
	v.status.Clear()
	v.status.SetDocument(documentLabel(conv))
	v.status.SetState(status.StateLoading)
	v.refresh()

	return tea.Batch(v.loadHistory(conv.ID), v.input.Focus())
}

func (v *View) loadHistory(id int64) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.conversations == nil {
			return messages.HistoryLoaded{ConversationID: id, Err: errors.New("conversation service not available")}
		}
		msgs, err := v.conversations.ListMessages(ctx, id)
		return messages.HistoryLoaded{ConversationID: id, Messages: msgs, Err: err}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		if msg.ConversationID != v.conv.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.status.SetState(status.StateError)
			v.status.SetMessage(msg.Err.Error())
		} else {
			v.transcript = msg.Messages
			v.status.Clear()
		}
		v.refresh()
		return v, nil

	case messages.AnswerChunk:
		if !v.current(msg.ConversationID, msg.Stream) {
			return v, nil
		}
		v.pending.WriteString(msg.Content)
		v.refresh()
		return v, v.next()

	case messages.AnswerDone:
		if !v.current(msg.ConversationID, msg.Stream) {
			return v, nil
		}
		v.finishStream(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // only scrolling, sending and leaving are handled here
	switch msg.Type {
	case tea.KeyEsc:
		if v.streaming {
			v.stopStream()
			v.finishStream(context.Canceled)
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChats}
		}

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case tea.KeyEnter:
		return v, v.send()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send starts an answer for the typed question. Questions typed while an
// answer is streaming or before the history has loaded are kept in the input.
func (v *View) send() tea.Cmd {
	question := v.input.Question()
	if question == "" || v.streaming || v.loading || v.chat == nil {
		return nil
	}

	prior := make([]domain.Message, len(v.transcript))
	copy(prior, v.transcript)

	v.transcript = append(v.transcript, domain.Message{
		ConversationID: v.conv.ID,
		Role:           domain.RoleUser,
		Content:        question,
	})
	v.input.Reset()
	v.input.SetWaiting(true)
	v.pending.Reset()
	v.streaming = true
	v.stream++
	v.err = nil
	v.status.Clear()
	v.status.SetState(status.StateStreaming)

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	chunks, errs := v.chat.StreamAnswer(ctx, v.conv.ID, prior, question, v.conv.DocumentKey)
	v.waiter = waitFor(v.conv.ID, v.stream, chunks, errs)

	v.refresh()
	return v.waiter
}

// next waits for the following increment of the current answer.
func (v *View) next() tea.Cmd {
	return v.waiter
}

// waitFor reads one increment, or the outcome once the stream has closed.
func waitFor(id int64, stream int, chunks <-chan domain.StreamChunk, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-chunks
		if !ok {
			return messages.AnswerDone{ConversationID: id, Stream: stream, Err: <-errs}
		}
		return messages.AnswerChunk{ConversationID: id, Stream: stream, Content: chunk.Content}
	}
}

func (v *View) current(id int64, stream int) bool {
	return v.streaming && id == v.conv.ID && stream == v.stream
}

// finishStream moves the pending answer into the transcript and reports err.
func (v *View) finishStream(err error) {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.streaming = false
	v.waiter = nil
	v.input.SetWaiting(false)

	if text := v.pending.String(); text != "" {
		v.transcript = append(v.transcript, domain.Message{
			ConversationID: v.conv.ID,
			Role:           domain.RoleAssistant,
			Content:        text,
		})
	}
	v.pending.Reset()

	switch {
	case err == nil:
		v.status.Clear()
	case errors.Is(err, context.Canceled):
		v.status.SetState(status.StateWarning)
		v.status.SetMessage("answer cancelled")
	case !domain.IsFatal(err):
		v.status.SetState(status.StateWarning)
		v.status.SetMessage("answer not saved: " + err.Error())
	default:
		v.err = err
		v.status.SetState(status.StateError)
		v.status.SetMessage(err.Error())
	}
	v.refresh()
}

// stopStream cancels the answer in flight, if any.
func (v *View) stopStream() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.streaming = false
	v.waiter = nil
	v.input.SetWaiting(false)
}

// refresh re-renders the transcript into the viewport, pinned to the bottom.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if v.loading {
		return v.styles.Muted.Render("Loading history...")
	}

	wrap := v.styles.Normal.Width(max(v.width-4, 20))

	var b strings.Builder
	for _, m := range v.transcript {
		b.WriteString(v.roleLabel(m.Role))
		b.WriteString("\n")
		b.WriteString(wrap.Render(m.Content))
		b.WriteString("\n\n")
	}
	if v.streaming {
		b.WriteString(v.roleLabel(domain.RoleAssistant))
		b.WriteString("\n")
		if v.pending.Len() == 0 {
			b.WriteString(v.styles.Streaming.Render("thinking..."))
		} else {
			b.WriteString(wrap.Render(v.pending.String()))
		}
		b.WriteString("\n")
	}
	if len(v.transcript) == 0 && !v.streaming {
		b.WriteString(v.styles.Muted.Render("No messages yet. Ask something about the document."))
	}
	return b.String()
}

func (v *View) roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return v.styles.UserLabel.Render("You")
	case domain.RoleAssistant:
		return v.styles.AssistantLabel.Render("Assistant")
	default:
		return v.styles.Muted.Render(role.String())
	}
}

// View renders the chat.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Chat #%d", v.conv.ID)))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(documentLabel(v.conv)))
	b.WriteString("\n\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.status.View())
	return b.String()
}

func documentLabel(conv domain.Conversation) string {
	if conv.DocumentName != "" {
		return conv.DocumentName
	}
	return conv.DocumentKey
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 3)
	v.input.SetWidth(width)
	v.status.SetWidth(width)
	v.refresh()
}

// Conversation returns the open conversation.
func (v *View) Conversation() domain.Conversation {
	return v.conv
}

// Transcript returns the messages shown, excluding an answer in flight.
func (v *View) Transcript() []domain.Message {
	return v.transcript
}

// Streaming reports whether an answer is in flight.
func (v *View) Streaming() bool {
	return v.streaming
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.status.State()
}

// Err returns the last fatal error.
func (v *View) Err() error {
	return v.err
}

// Close cancels any answer in flight.
func (v *View) Close() {
	v.stopStream()
}
