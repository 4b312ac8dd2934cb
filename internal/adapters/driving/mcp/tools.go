package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/services"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	DocumentKey string `json:"document_key" jsonschema:"storage key of an ingested document"`
	Query       string `json:"query" jsonschema:"the question or text to find relevant passages for"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context string        `json:"context"`
	Matches []MatchOutput `json:"matches"`
	Count   int           `json:"count"`
}

// MatchOutput represents a single retrieved passage.
type MatchOutput struct {
	ID         string  `json:"id"`
	PageNumber int     `json:"page_number"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	ChatID   int64  `json:"chat_id" jsonschema:"id of the chat to ask in"`
	Question string `json:"question" jsonschema:"the question about the chat's document"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	ChatID  int64  `json:"chat_id"`
	Answer  string `json:"answer"`
	Warning string `json:"warning,omitempty"`
}

// ListChatsInput is the (empty) input schema for the list_chats tool.
type ListChatsInput struct{}

// ListChatsOutput is the output schema for the list_chats tool.
type ListChatsOutput struct {
	Chats []ChatOutput `json:"chats"`
	Count int          `json:"count"`
}

// ChatOutput represents a single chat.
type ChatOutput struct {
	ID           int64     `json:"id"`
	DocumentKey  string    `json:"document_key"`
	DocumentName string    `json:"document_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Find the passages of an ingested PDF most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question in a chat and get an answer grounded in its document",
	}, s.handleAsk)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_chats",
		Description: "List all chats and the documents they are about",
	}, s.handleListChats)
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.DocumentKey == "" || input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: document_key and query are required", domain.ErrInvalidInput)
	}

	matches, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.DocumentKey)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	maxChars := s.ports.ContextChars
	if maxChars <= 0 {
		maxChars = services.DefaultMaxContextChars
	}

	output := RetrieveOutput{
		Context: services.JoinContext(matches, maxChars),
		Matches: make([]MatchOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Matches[i] = MatchOutput{
			ID:         m.ID,
			PageNumber: m.Metadata.PageNumber,
			Score:      m.Score,
			Text:       m.Metadata.Text,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation. The streamed answer is
// collected in full; the exchange is saved to the chat like any other turn.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, ErrChatUnavailable
	}

	conv, err := s.ports.Conversation.GetConversation(ctx, input.ChatID)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("chat %d: %w", input.ChatID, err)
	}
	prior, err := s.ports.Conversation.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("loading history: %w", err)
	}

	answer, err := services.CollectAnswer(
		s.ports.Chat.StreamAnswer(ctx, conv.ID, prior, input.Question, conv.DocumentKey),
	)

	output := AskOutput{ChatID: conv.ID, Answer: answer}
	if err != nil {
		if domain.IsFatal(err) {
			return nil, AskOutput{}, err
		}
		output.Warning = err.Error()
	}

	return nil, output, nil
}

// handleListChats handles the list_chats tool invocation.
func (s *Server) handleListChats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListChatsInput,
) (*mcp.CallToolResult, ListChatsOutput, error) {
	convs, err := s.ports.Conversation.ListConversations(ctx)
	if err != nil {
		return nil, ListChatsOutput{}, err
	}

	output := ListChatsOutput{
		Chats: make([]ChatOutput, len(convs)),
		Count: len(convs),
	}
	for i, c := range convs {
		output.Chats[i] = ChatOutput{
			ID:           c.ID,
			DocumentKey:  c.DocumentKey,
			DocumentName: c.DocumentName,
			CreatedAt:    c.CreatedAt,
		}
	}

	return nil, output, nil
}
