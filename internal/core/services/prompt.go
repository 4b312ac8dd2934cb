package services

import (
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// BuildPrompt assembles the messages sent to the model: a system message
// carrying the context block, every prior user turn, then userText.
// Prior assistant turns are not replayed.
func BuildPrompt(template, contextText string, prior []domain.Message, userText string) []driven.ChatMessage {
	if template == "" {
		template = driven.DefaultPrompts[driven.PromptChatSystem]
	}

	var system string
	if strings.Contains(template, driven.ContextPlaceholder) {
		system = strings.Replace(template, driven.ContextPlaceholder, contextText, 1)
	} else {
		system = template + "\n" + contextText
	}

	msgs := make([]driven.ChatMessage, 0, len(prior)+2)
	msgs = append(msgs, driven.ChatMessage{Role: domain.RoleSystem.String(), Content: system})
	for _, m := range prior {
		if m.Role == domain.RoleUser && m.Content != "" {
			msgs = append(msgs, driven.ChatMessage{Role: domain.RoleUser.String(), Content: m.Content})
		}
	}
	msgs = append(msgs, driven.ChatMessage{Role: domain.RoleUser.String(), Content: userText})
	return msgs
}
