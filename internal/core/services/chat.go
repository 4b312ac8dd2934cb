package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService streams grounded answers and persists completed exchanges.
type ChatService struct {
	retrieval     driving.RetrievalService
	llm           driven.LLMService
	conversations driven.ConversationStore
	promptStore   driven.PromptStore
	opts          driven.ChatOptions
	metrics       *metrics.Metrics
}

// NewChatService creates a new chat service.
// llm may be nil, in which case StreamAnswer fails with ErrLLMUnavailable.
func NewChatService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	conversations driven.ConversationStore,
	opts driven.ChatOptions,
) *ChatService {
	return &ChatService{
		retrieval:     retrieval,
		llm:           llm,
		conversations: conversations,
		opts:          opts,
	}
}

// SetPromptStore sets the prompt store for loading the system prompt.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SetMetrics attaches a metrics collector.
func (s *ChatService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// StreamAnswer retrieves context, streams the model reply and, once the
// reply is complete, appends the user and assistant messages in one call.
// Failed or cancelled turns persist nothing.
func (s *ChatService) StreamAnswer(
	ctx context.Context,
	conversationID int64,
	prior []domain.Message,
	userText string,
	documentKey string,
) (<-chan domain.StreamChunk, <-chan error) {
	out := make(chan domain.StreamChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		status, err := s.answer(ctx, conversationID, prior, userText, documentKey, out)
		s.metrics.RecordChatStream(status)
		if err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (s *ChatService) answer(
	ctx context.Context,
	conversationID int64,
	prior []domain.Message,
	userText string,
	documentKey string,
	out chan<- domain.StreamChunk,
) (string, error) {
	log := logger.With("chat").With().Int64("conversation", conversationID).Logger()

	if s.llm == nil {
		return "failed", domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(userText) == "" {
		return "failed", fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	// 1. Retrieve context
	contextText, err := s.retrieval.RetrieveContext(ctx, userText, documentKey)
	if err != nil {
		return "failed", fmt.Errorf("retrieve context: %w", err)
	}

	// 2. Build the prompt
	msgs := BuildPrompt(s.loadTemplate(), contextText, prior, userText)
	log.Debug().Int("context_chars", len(contextText)).Int("messages", len(msgs)).Msg("prompt built")

	// 3. Stream the completion
	deltas, upstreamErrs := s.llm.StreamChat(ctx, msgs, s.opts)
	var answer strings.Builder
	emitted := 0

	for deltas != nil || upstreamErrs != nil {
		select {
		case <-ctx.Done():
			drain(deltas, upstreamErrs)
			log.Debug().Int("emitted", emitted).Msg("stream cancelled")
			return "cancelled", ctx.Err()

		case delta, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			if delta == "" {
				continue
			}
			answer.WriteString(delta)
			select {
			case out <- domain.StreamChunk{Role: domain.RoleAssistant, Content: delta}:
				emitted++
			case <-ctx.Done():
				drain(deltas, upstreamErrs)
				return "cancelled", ctx.Err()
			}

		case upErr, ok := <-upstreamErrs:
			if !ok {
				upstreamErrs = nil
				continue
			}
			if upErr != nil {
				drain(deltas, nil)
				if errors.Is(upErr, context.Canceled) && ctx.Err() != nil {
					return "cancelled", ctx.Err()
				}
				log.Error().Err(upErr).Int("emitted", emitted).Msg("completion stream failed")
				return "failed", &domain.CompletionStreamError{Emitted: emitted, Err: upErr}
			}
		}
	}

	// 4. Persist the exchange
	if s.conversations == nil {
		return "ok", nil
	}
	// The turn is complete; a late disconnect must not drop it
	persistCtx := context.WithoutCancel(ctx)
	err = s.conversations.AppendMessages(persistCtx, conversationID,
		domain.Message{Role: domain.RoleUser, Content: userText},
		domain.Message{Role: domain.RoleAssistant, Content: answer.String()},
	)
	if err != nil {
		log.Error().Err(err).Msg("persist messages")
		return "degraded", &domain.PersistenceError{ConversationID: conversationID, Err: err}
	}

	return "ok", nil
}

func (s *ChatService) loadTemplate() string {
	if s.promptStore != nil {
		if tmpl, err := s.promptStore.Load(driven.PromptChatSystem); err == nil && tmpl != "" {
			return tmpl
		}
	}
	return driven.DefaultPrompts[driven.PromptChatSystem]
}

// drain consumes what is left of an upstream stream in the background so
// its producer can exit.
func drain(deltas <-chan string, errs <-chan error) {
	go func() {
		if deltas != nil {
			for range deltas { //nolint:revive // discard
			}
		}
		if errs != nil {
			for range errs { //nolint:revive // discard
			}
		}
	}()
}

// CollectAnswer reads a StreamAnswer result to completion. It returns the
// full text and the stream's error, if any; a *domain.PersistenceError comes
// back together with the complete text.
func CollectAnswer(chunks <-chan domain.StreamChunk, errs <-chan error) (string, error) {
	var b strings.Builder
	for c := range chunks {
		b.WriteString(c.Content)
	}
	for err := range errs {
		if err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}
