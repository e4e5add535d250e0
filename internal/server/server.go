// Package server provides the HTTP JSON API for the healthcare assistant.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/auth"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/chat"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/embedding"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/retrieval"
	"github.com/muhhylmi/chatbot-healthcare-assistant/pkg/config"
	"go.uber.org/zap"
)

// Server is the HTTP server for the chatbot API.
type Server struct {
	auth      *auth.Service
	router    *chat.Router
	embedder  embedding.Embedder
	retriever retrieval.Retriever
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. embedder and
// retriever may be nil, which disables document seeding.
func NewServer(authService *auth.Service, chatRouter *chat.Router, embedder embedding.Embedder, retriever retrieval.Retriever, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		auth:      authService,
		router:    chatRouter,
		embedder:  embedder,
		retriever: retriever,
		config:    cfg,
		logger:    logger,
	}
}

// routes builds the chi router with all middleware and endpoints.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.corsMiddleware)

	r.Post("/api/auth/signup", s.handleSignup)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/status", s.handleChatStatus)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/auth/profile", s.handleProfile)
		r.Put("/api/user/profile", s.handleUpdateProfile)
		r.Put("/api/user/password", s.handleUpdatePassword)
		r.Post("/api/documents", s.handleAddDocument)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
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
