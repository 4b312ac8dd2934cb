package driven

import "context"

// LLMService writes answers with a chat model. Adapters exist for Ollama,
// OpenAI, Anthropic and Gemini.
type LLMService interface {
	// Chat sends messages and waits for the whole reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// StreamChat conducts a multi-turn conversation and delivers the reply
	// incrementally. The text channel carries deltas in arrival order. Both
	// channels are closed when the stream ends; at most one error is sent.
	// Cancelling ctx aborts the upstream request and releases its connection.
	StreamChat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan string, <-chan error)

	// ModelName is the configured model, e.g. "gpt-4o-mini".
	ModelName() string

	// Ping sends the smallest request the provider accepts.
	Ping(ctx context.Context) error

	Close() error
}

// ChatMessage is one turn sent to the model. Role is "system", "user" or
// "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a completion. Zero values leave the provider default.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
