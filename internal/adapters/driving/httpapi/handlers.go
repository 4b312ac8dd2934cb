package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

type uploadResponse struct {
	FileKey  string `json:"file_key"`
	FileName string `json:"file_name"`
}

type createChatRequest struct {
	FileKey  string `json:"file_key"`
	FileName string `json:"file_name"`
}

type createChatResponse struct {
	ChatID  int64  `json:"chat_id"`
	FileKey string `json:"file_key,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ChatID   int64         `json:"chatId"`
	Messages []chatMessage `json:"messages"`
}

type getMessagesRequest struct {
	ChatID int64 `json:"chatId"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// streamLine is one NDJSON line of a chat response.
type streamLine struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleUpload(c *gin.Context) {
	resp, ok := s.storeUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleUploadAndIndex stores, ingests and opens a chat in one request.
func (s *Server) handleUploadAndIndex(c *gin.Context) {
	resp, ok := s.storeUpload(c)
	if !ok {
		return
	}

	conv, err := s.ports.Conversation.CreateConversation(c.Request.Context(), resp.FileKey, resp.FileName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, createChatResponse{ChatID: conv.ID, FileKey: resp.FileKey})
}

func (s *Server) storeUpload(c *gin.Context) (uploadResponse, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return uploadResponse{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return uploadResponse{}, false
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return uploadResponse{}, false
	}

	f, err := header.Open()
	if err != nil {
		writeError(c, err)
		return uploadResponse{}, false
	}
	defer f.Close()

	key, err := s.ports.Conversation.Upload(c.Request.Context(), header.Filename, f)
	if err != nil {
		writeError(c, err)
		return uploadResponse{}, false
	}
	return uploadResponse{FileKey: key, FileName: header.Filename}, true
}

func (s *Server) handleCreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileKey == "" || req.FileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file_key or file_name"})
		return
	}

	conv, err := s.ports.Conversation.CreateConversation(c.Request.Context(), req.FileKey, req.FileName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, createChatResponse{ChatID: conv.ID})
}

// handleChat streams the answer to the last message as NDJSON. Errors that
// happen before the first increment are plain JSON responses; later ones
// end the stream with an error line.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != string(domain.RoleUser) || strings.TrimSpace(last.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last message must be a non-empty user message"})
		return
	}

	ctx := c.Request.Context()
	conv, err := s.ports.Conversation.GetConversation(ctx, req.ChatID)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	prior := make([]domain.Message, 0, len(req.Messages)-1)
	for _, m := range req.Messages[:len(req.Messages)-1] {
		prior = append(prior, domain.Message{ConversationID: conv.ID, Role: domain.Role(m.Role), Content: m.Content})
	}

	chunks, errs := s.ports.Chat.StreamAnswer(ctx, conv.ID, prior, last.Content, conv.DocumentKey)

	var early error
	first, ok := <-chunks
	if !ok {
		early = <-errs
		if early != nil && domain.IsFatal(early) {
			writeError(c, early)
			return
		}
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	write := func(line streamLine) bool {
		if err := enc.Encode(line); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if ok {
		if !write(streamLine{Role: string(first.Role), Content: first.Content}) {
			return
		}
		for chunk := range chunks {
			if !write(streamLine{Role: string(chunk.Role), Content: chunk.Content}) {
				return
			}
		}
	}

	if early != nil {
		write(streamLine{Warning: early.Error()})
	}
	for err := range errs {
		if !domain.IsFatal(err) {
			write(streamLine{Warning: err.Error()})
			continue
		}
		logger.L().Error().Err(err).Int64("chat", conv.ID).Msg("chat stream ended with error")
		write(streamLine{Error: publicMessage(err), Kind: domain.ErrorKind(err)})
	}
}

func (s *Server) handleGetMessages(c *gin.Context) {
	var req getMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
		return
	}

	msgs, err := s.ports.Conversation.ListMessages(c.Request.Context(), req.ChatID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		resp[i] = messageResponse{
			ID:        strconv.FormatInt(m.ID, 10),
			Role:      m.Role.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListChats(c *gin.Context) {
	convs, err := s.ports.Conversation.ListConversations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

func (s *Server) handleIngestStatus(c *gin.Context) {
	if s.ports.Ingestion == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion is not configured"})
		return
	}

	status, err := s.ports.Ingestion.Status(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// writeError maps err to a status code and writes {error, kind}.
func writeError(c *gin.Context, err error) {
	kind := domain.ErrorKind(err)
	c.JSON(statusFor(err), gin.H{"error": publicMessage(err), "kind": kind})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal details of unclassified errors.
func publicMessage(err error) string {
	if domain.ErrorKind(err) == domain.KindInternal && statusFor(err) == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return err.Error()
}
