// Package httpapi serves the docchat HTTP API with gin.
//
// The routes mirror what the web client expects: uploads, chat creation,
// message history and a streamed chat endpoint that writes one JSON object
// per line.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/metrics"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// MaxUploadBytes bounds the size of an uploaded file.
const MaxUploadBytes = 32 << 20

const shutdownTimeout = 10 * time.Second

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Conversation driving.ConversationService
	Ingestion    driving.IngestionService
	Chat         driving.ChatService
}

// Server is the HTTP API.
type Server struct {
	ports   Ports
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// NewServer builds the router. m may be nil, in which case /metrics is not
// served and nothing is recorded.
func NewServer(ports Ports, m *metrics.Metrics) *Server {
	engine := gin.New()
	// Document keys contain '/', so clients escape them in the path
	engine.UseRawPath = true
	engine.UnescapePathValues = true
	engine.MaxMultipartMemory = 8 << 20

	s := &Server{
		ports:   ports,
		metrics: m,
		engine:  engine,
	}

	engine.Use(gin.Recovery(), requestID(), requestLogger(), s.recordMetrics())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/upload-and-index", s.handleUploadAndIndex)
		api.POST("/create-chat", s.handleCreateChat)
		api.POST("/chat", s.handleChat)
		api.POST("/get-messages", s.handleGetMessages)
		api.GET("/chats", s.handleListChats)
		api.GET("/ingest/:key/status", s.handleIngestStatus)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log := logger.With("http")
	log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}
