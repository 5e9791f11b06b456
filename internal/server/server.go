package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gptportal/portal-go/internal/config"
	"github.com/gptportal/portal-go/internal/handlers"
	"github.com/gptportal/portal-go/internal/middleware"
	"github.com/gptportal/portal-go/internal/promptcache"
	"github.com/gptportal/portal-go/internal/providers"
	"github.com/gptportal/portal-go/internal/session"
	"github.com/gptportal/portal-go/internal/tokenizer"
)

type Server struct {
	config   *config.Manager
	router   *providers.Router
	sessions *session.Store
	cache    *promptcache.Engine
	logger   *slog.Logger
	server   *http.Server
}

func New(configManager *config.Manager, logger *slog.Logger) *Server {
	cfg := configManager.Get()

	counter := tokenizer.NewTiktokenCounter(logger)
	cache := promptcache.NewEngine(counter, cfg.Cache, logger)

	keys := providers.Keys{
		OpenAI:     cfg.Keys.OpenAI,
		Anthropic:  cfg.Keys.Anthropic,
		Google:     cfg.Keys.Google,
		Groq:       cfg.Keys.Groq,
		Mistral:    cfg.Keys.Mistral,
		Codestral:  cfg.Keys.Codestral,
		DeepSeek:   cfg.Keys.DeepSeek,
		OpenRouter: cfg.Keys.OpenRouter,
	}

	return &Server{
		config:   configManager,
		router:   providers.NewRouter(keys, cache, cfg.ClaudeWebSearch, logger),
		sessions: session.NewStore(),
		cache:    cache,
		logger:   logger,
	}
}

func (s *Server) Start() error {
	cfg := s.config.Get()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	mux := s.setupRoutes()

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	s.logger.Info("Starting server", "address", addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	chatHandler := handlers.NewChatHandler(s.router, s.sessions, s.logger)
	imageHandler := handlers.NewImageHandler(s.router, s.logger)
	transcribeHandler := handlers.NewTranscribeHandler(s.router, s.logger)
	speechHandler := handlers.NewSpeechHandler(s.router, s.logger)
	cacheHandler := handlers.NewCacheHandler(s.cache, s.logger)
	healthHandler := handlers.NewHealthHandler(s.sessions, s.logger)

	middlewareSet := middleware.NewMiddlewareSet(s.config, s.logger)
	defaultChain := middlewareSet.DefaultChain()

	mux.Handle("/api/chat", defaultChain.Handler(chatHandler))
	mux.Handle("/api/image", defaultChain.Handler(imageHandler))
	mux.Handle("/api/transcribe", defaultChain.Handler(transcribeHandler))
	mux.Handle("/api/tts", defaultChain.Handler(speechHandler))
	mux.Handle("/api/cache/analytics", defaultChain.Handler(http.HandlerFunc(cacheHandler.Analytics)))
	mux.Handle("/api/cache/reset", defaultChain.Handler(http.HandlerFunc(cacheHandler.Reset)))
	mux.Handle("/health", middlewareSet.HealthChain().Handler(healthHandler))

	return mux
}
