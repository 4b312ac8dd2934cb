package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for docchat resources.
	uriScheme = "docchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing chats.
	s.mcp.AddResource(&mcp.Resource{
		URI:         uriScheme + "chats",
		Name:        "chats",
		Description: "List of all chats and their documents",
		MIMEType:    "application/json",
	}, s.handleChatsResource)

	// Template for chat history.
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chats/{chatId}/messages",
		Name:        "chat-messages",
		Description: "Messages of a specific chat in order",
		MIMEType:    "application/json",
	}, s.handleMessagesResource)
}

// handleChatsResource returns all chats.
func (s *Server) handleChatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	convs, err := s.ports.Conversation.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}

	type chatInfo struct {
		ID           int64  `json:"id"`
		DocumentKey  string `json:"document_key"`
		DocumentName string `json:"document_name"`
		DocumentURL  string `json:"document_url,omitempty"`
	}

	infos := make([]chatInfo, len(convs))
	for i, c := range convs {
		infos[i] = chatInfo{
			ID:           c.ID,
			DocumentKey:  c.DocumentKey,
			DocumentName: c.DocumentName,
			DocumentURL:  c.DocumentURL,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleMessagesResource returns the messages of one chat.
func (s *Server) handleMessagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract chatId from URI: docchat://chats/{chatId}/messages
	chatID, ok := extractChatID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	if _, err := s.ports.Conversation.GetConversation(ctx, chatID); err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	msgs, err := s.ports.Conversation.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	type messageInfo struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	infos := make([]messageInfo, len(msgs))
	for i, m := range msgs {
		infos[i] = messageInfo{Role: m.Role.String(), Content: m.Content}
	}

	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChatID extracts the chat ID from a URI like docchat://chats/{chatId}/messages.
func extractChatID(uri string) (int64, bool) {
	const prefix = uriScheme + "chats/"
	const suffix = "/messages"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return 0, false
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
