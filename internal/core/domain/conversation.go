package domain

import "time"

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Conversation is a chat held against a single document.
// Many conversations may reference the same document.
type Conversation struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// DocumentKey is the storage key of the document the chat is about.
	DocumentKey string `json:"documentKey"`

	// DocumentName is the original file name shown to users.
	DocumentName string `json:"documentName,omitempty"`

	// DocumentURL is where the source file can be downloaded, if known.
	DocumentURL string `json:"documentUrl,omitempty"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single append-only turn in a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StreamChunk is one text increment of a streamed answer.
type StreamChunk struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
