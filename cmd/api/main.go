// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/config"
	"github.com/personachat/persona-platform/internal/handler"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/middleware"
	natsclient "github.com/personachat/persona-platform/internal/nats"
	"github.com/personachat/persona-platform/internal/orchestrator"
	"github.com/personachat/persona-platform/internal/service"
	"github.com/personachat/persona-platform/internal/session"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "persona-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	threadStream := natsclient.NewThreadStream(natsClient)
	if err := threadStream.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == "openai" && cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	}
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	if llmClient == nil {
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	gateway := llm.NewGateway(llmClient, "")

	// Initialize storage and conversation flows
	memory := store.NewMemory()
	turner := orchestrator.New(memory, gateway, threadStream, log)
	chatFlow := session.NewChat(memory, gateway, threadStream, log)
	sessionSvc := session.NewService(memory, turner, chatFlow, threadStream, log)

	// Initialize services
	personaSvc := service.NewPersonaService(memory, llmClient, log)
	groupSvc := service.NewGroupService(memory, log)
	threadSvc := service.NewThreadService(memory, log)
	workplaceSvc := service.NewWorkplaceService(memory, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	chatHandler := handler.NewChatHandler(sessionSvc, log)
	personaHandler := handler.NewPersonaHandler(personaSvc, log)
	groupHandler := handler.NewGroupHandler(groupSvc, log)
	threadHandler := handler.NewThreadHandler(threadSvc, log)
	workplaceHandler := handler.NewWorkplaceHandler(workplaceSvc, log)
	streamHandler := handler.NewStreamHandler(threadSvc, threadStream, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Public shared-thread snapshots (no auth required)
	r.Get("/public/threads/{publicId}", threadHandler.Public)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Chat
		r.Post("/chat", chatHandler.Chat)
		r.Post("/group-chat", chatHandler.GroupChat)

		// Personas
		r.Route("/personas", func(r chi.Router) {
			r.Post("/", personaHandler.Create)
			r.Get("/", personaHandler.List)
			r.Post("/generate-prompt", personaHandler.GeneratePrompt)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", personaHandler.Get)
				r.Put("/", personaHandler.Update)
				r.Delete("/", personaHandler.Delete)
			})
		})

		// Persona groups
		r.Route("/groups", func(r chi.Router) {
			r.Post("/", groupHandler.Create)
			r.Get("/", groupHandler.List)
			r.Get("/{id}", groupHandler.Get)
		})

		// Threads
		r.Route("/threads", func(r chi.Router) {
			r.Post("/", threadHandler.Create)
			r.Get("/", threadHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", threadHandler.Get)
				r.Put("/", threadHandler.Update)

				r.Get("/messages", threadHandler.Messages)
				r.Post("/share", threadHandler.Share)
				r.Get("/stream", streamHandler.Stream)
			})
		})

		// Workplace context
		r.Get("/workplace", workplaceHandler.Get)
		r.Put("/workplace", workplaceHandler.Save)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
