package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

// UploadPrefix is the key prefix of every uploaded document.
const UploadPrefix = "uploads/"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ConversationService manages uploads and conversations about them.
type ConversationService struct {
	objects       driven.ObjectStore
	ingestion     driving.IngestionService
	conversations driven.ConversationStore
	retryPolicy   RetryPolicy
	now           func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	objects driven.ObjectStore,
	ingestion driving.IngestionService,
	conversations driven.ConversationStore,
) *ConversationService {
	return &ConversationService{
		objects:       objects,
		ingestion:     ingestion,
		conversations: conversations,
		now:           time.Now,
	}
}

// SetRetryPolicy sets the retry policy CreateConversation ingests with.
// The zero policy makes a single attempt.
func (s *ConversationService) SetRetryPolicy(p RetryPolicy) {
	s.retryPolicy = p
}

// UploadKey returns the storage key for fileName uploaded at t:
// "uploads/<unix-ms><sanitized name>".
func UploadKey(fileName string, t time.Time) string {
	name := unsafeNameChars.ReplaceAllString(strings.ReplaceAll(filepath.Base(fileName), " ", "-"), "")
	return UploadPrefix + strconv.FormatInt(t.UnixMilli(), 10) + name
}

// Upload stores the file and returns its key.
func (s *ConversationService) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", fmt.Errorf("%w: empty file name", domain.ErrInvalidInput)
	}

	key := UploadKey(fileName, s.now())
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.objects.Put(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	logger.L().Info().Str("component", "upload").Str("key", key).Msg("stored upload")
	return key, nil
}

// CreateConversation ingests the document and records a conversation on it.
// Ingestion errors are returned unwrapped so callers can classify them.
func (s *ConversationService) CreateConversation(
	ctx context.Context,
	documentKey, documentName string,
) (domain.Conversation, error) {
	if documentKey == "" {
		return domain.Conversation{}, fmt.Errorf("%w: empty document key", domain.ErrInvalidInput)
	}

	if _, err := IngestWithRetry(ctx, s.ingestion, documentKey, driving.IngestOptions{}, s.retryPolicy); err != nil {
		return domain.Conversation{}, err
	}

	return s.OpenConversation(ctx, documentKey, documentName)
}

// OpenConversation records a conversation for an already ingested document.
func (s *ConversationService) OpenConversation(
	ctx context.Context,
	documentKey, documentName string,
) (domain.Conversation, error) {
	if documentName == "" {
		documentName = filepath.Base(documentKey)
	}

	conv, err := s.conversations.CreateConversation(ctx, domain.Conversation{
		DocumentKey:  documentKey,
		DocumentName: documentName,
		DocumentURL:  s.objects.URL(documentKey),
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns domain.ErrNotFound if id is unknown.
func (s *ConversationService) GetConversation(ctx context.Context, id int64) (domain.Conversation, error) {
	return s.conversations.GetConversation(ctx, id)
}

// ListConversations returns all conversations, newest first.
func (s *ConversationService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.conversations.ListConversations(ctx)
}

// ListMessages returns a conversation's messages in creation order.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	return s.conversations.ListMessages(ctx, conversationID)
}
