// Package mcp exposes document retrieval and chat to MCP clients over stdio
// or streamable HTTP.
package mcp

import (
	"errors"

	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

var (
	ErrMissingRetrievalService    = errors.New("mcp: retrieval service is required")
	ErrMissingConversationService = errors.New("mcp: conversation service is required")

	// ErrChatUnavailable is what the ask tool reports when Ports.Chat is nil.
	ErrChatUnavailable = errors.New("mcp: chat service is not configured")
)

// Ports are the services the tools and resources call into.
type Ports struct {
	Retrieval    driving.RetrievalService
	Conversation driving.ConversationService

	// Chat is optional; only the ask tool needs it.
	Chat driving.ChatService

	// ContextChars caps the text retrieve_context returns. Zero keeps the
	// retrieval service's own limit.
	ContextChars int
}

// Validate reports the first required service that is missing.
func (p *Ports) Validate() error {
	switch {
	case p.Retrieval == nil:
		return ErrMissingRetrievalService
	case p.Conversation == nil:
		return ErrMissingConversationService
	}
	return nil
}
