// Package tui is the interactive terminal chat over indexed documents.
package tui

import (
	"errors"

	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

var (
	ErrInvalidPorts               = errors.New("tui: no ports given")
	ErrMissingConversationService = errors.New("tui: conversation service is required")
	ErrMissingChatService         = errors.New("tui: chat service is required")
)

// Ports are the services behind the chat list and the chat view.
type Ports struct {
	Conversation driving.ConversationService
	Chat         driving.ChatService
}

// Validate reports the first missing service.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Conversation == nil:
		return ErrMissingConversationService
	case p.Chat == nil:
		return ErrMissingChatService
	}
	return nil
}
