// Package messages holds the tea.Msg values exchanged between TUI views.
package messages

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ViewType names the view that has focus.
type ViewType int

const (
	ViewChats ViewType = iota // conversation list
	ViewChat                  // one conversation
	ViewHelp                  // key bindings
)

var viewNames = [...]string{ViewChats: "chats", ViewChat: "chat", ViewHelp: "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged moves focus to another view.
type ViewChanged struct{ View ViewType }

// Quit stops the program.
type Quit struct{}

// ErrorOccurred reports a failure the app shows above the current view.
type ErrorOccurred struct{ Err error }

// ChatsLoaded is the result of listing conversations.
type ChatsLoaded struct {
	Chats []domain.Conversation
	Err   error
}

// ChatSelected asks the app to open a conversation.
type ChatSelected struct{ Conversation domain.Conversation }

// HistoryLoaded carries the stored messages of a conversation.
type HistoryLoaded struct {
	ConversationID int64
	Messages       []domain.Message
	Err            error
}

// AnswerChunk is one increment of a streamed answer. Stream counts the
// questions asked in the view; chunks from an abandoned stream carry a
// stale number and are dropped.
type AnswerChunk struct {
	ConversationID int64
	Stream         int
	Content        string
}

// AnswerDone closes a stream. A nil Err is success; a
// *domain.PersistenceError means the answer was shown but not saved.
type AnswerDone struct {
	ConversationID int64
	Stream         int
	Err            error
}
