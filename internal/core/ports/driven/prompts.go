package driven

// PromptStore supplies prompt templates that users may edit.
type PromptStore interface {
	// Load returns the named template. Unknown names are an error; a known
	// template that cannot be read falls back to DefaultPrompts.
	Load(name string) (string, error)

	// Reload drops cached templates so edits are picked up.
	Reload()
}

// PromptChatSystem is the system prompt for document chat.
const PromptChatSystem = "chat_system"

// ContextPlaceholder marks where retrieved context goes in the chat prompt.
// A usable chat template contains it exactly once.
const ContextPlaceholder = "%s"

// FallbackAnswer is the reply the model is told to give when the context
// does not contain the answer.
const FallbackAnswer = "I'm sorry, but I don't know the answer to that question."

// DefaultPrompts holds the built-in template for every known prompt.
var DefaultPrompts = map[string]string{
	PromptChatSystem: `AI assistant is a brand new, powerful, human-like artificial intelligence.
The assistant answers questions about a single document using only the context below.
START CONTEXT BLOCK
` + ContextPlaceholder + `
END OF CONTEXT BLOCK
If the context does not provide the answer, say, "` + FallbackAnswer + `"
The assistant will not invent anything that is not drawn directly from the context.`,
}
