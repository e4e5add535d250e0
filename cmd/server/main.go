package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/auth"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/chat"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/embedding"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/retrieval"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/server"
	"github.com/muhhylmi/chatbot-healthcare-assistant/internal/storage"
	"github.com/muhhylmi/chatbot-healthcare-assistant/pkg/config"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	if cfg.Auth.TokenSecret == "" {
		logger.Fatal("TOKEN_SECRET is required")
	}

	// Initialize storage; the backend is selected once here and injected
	// everywhere it is needed.
	var store storage.UserStorage
	var retriever retrieval.Retriever
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
		if cfg.Chat.UseMemoryRetriever {
			logger.Info("Using in-memory vector retriever")
			retriever = retrieval.NewMemoryRetriever()
		}
	} else {
		logger.Info("Using PostgreSQL storage")
		pg, err := storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
		store = pg
		retriever = retrieval.NewPostgresRetriever(pg.DB())
	}
	defer store.Close()

	// Initialize auth service
	tokens := auth.NewTokenService(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authService := auth.NewService(store, tokens, logger)

	// Initialize the answer pipeline; without an API key every message
	// takes the static path.
	var embedder embedding.Embedder
	var generator *chat.Generator
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey)
		embedder = embedding.NewOpenAIEmbedder(client, cfg.OpenAI.EmbeddingModel)
		generator = chat.NewGenerator(embedder, retriever, client, chat.GeneratorConfig{
			Model:               cfg.OpenAI.Model,
			MaxTokens:           cfg.OpenAI.MaxTokens,
			Temperature:         cfg.OpenAI.Temperature,
			SimilarityThreshold: cfg.Chat.SimilarityThreshold,
			TopK:                cfg.Chat.TopK,
			HistoryWindow:       cfg.Chat.HistoryWindow,
		}, logger)
	} else {
		logger.Info("No OpenAI API key configured, using static responses only")
	}

	chatRouter := chat.NewRouter(chat.NewStaticResponder(), generator, cfg.Chat.MaxMessageLength, logger)

	// Start the server
	srv := server.NewServer(authService, chatRouter, embedder, retriever, &cfg.Server, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
