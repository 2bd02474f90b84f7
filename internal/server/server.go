// Package server provides the HTTP API for the chat-rag-ia backend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/chat"
	"github.com/Brunobgr08/chat-rag-ia/internal/config"
	"github.com/Brunobgr08/chat-rag-ia/internal/ingest"
	"github.com/Brunobgr08/chat-rag-ia/internal/llm"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
	"github.com/Brunobgr08/chat-rag-ia/internal/whatsapp"
)

// Server is the HTTP server for the chat-rag-ia API.
type Server struct {
	storage  storage.Storage
	ingestor *ingest.Ingestor
	chat     *chat.Service
	llm      *llm.OpenRouter
	gateway  whatsapp.Gateway
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	ingestor *ingest.Ingestor,
	chatSvc *chat.Service,
	llmClient *llm.OpenRouter,
	gateway whatsapp.Gateway,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:  store,
		ingestor: ingestor,
		chat:     chatSvc,
		llm:      llmClient,
		gateway:  gateway,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(180 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSaveConfig)
		r.Post("/config/validate-api-key", s.handleValidateAPIKey)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", s.handleUploadDocument)
			r.Get("/", s.handleListDocuments)
			r.Get("/stats/summary", s.handleDocumentStats)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", s.handleChat)
			r.Get("/conversations", s.handleListConversations)
			r.Get("/conversations/{id}", s.handleGetConversation)
			r.Delete("/conversations/{id}", s.handleDeleteConversation)
		})

		r.Route("/whatsapp", func(r chi.Router) {
			r.Post("/webhook/{instance}", s.handleWebhook)
			r.Post("/send-test", s.handleSendTest)
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
