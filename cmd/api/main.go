package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/driftworld/turncore/internal/config"
	"github.com/driftworld/turncore/internal/handlers"
	"github.com/driftworld/turncore/internal/logger"
	"github.com/driftworld/turncore/internal/middleware"
	"github.com/driftworld/turncore/internal/services"
	"github.com/driftworld/turncore/internal/services/events"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/storage"
	"github.com/driftworld/turncore/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting turncore API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "venice":
		if cfg.VeniceAPIKey == "" {
			log.Error("Venice API key is required when using venice provider")
			os.Exit(1)
		}
		llmService = services.NewVeniceService(cfg.VeniceAPIKey, cfg.VeniceModel, "")
		log.Info("Using Venice LLM provider", "model", cfg.VeniceModel)
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaURL, cfg.OllamaModel, log)
		log.Info("Using Ollama LLM provider", "model", cfg.OllamaModel)
	case "mock":
		llmService = services.NewMockLLMService()
		log.Warn("Using mock LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"venice", "ollama", "mock"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	modelName := cfg.VeniceModel
	if strings.ToLower(cfg.LLMProvider) == "ollama" {
		modelName = cfg.OllamaModel
	}
	if err := llmService.InitModel(initCtx, modelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", modelName)
		os.Exit(1)
	}

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	turnQueue := queue.NewTurnQueue(queueClient)
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)

	processor := worker.NewTurnProcessor(store, llmService, turnQueue, log, cfg.HistoryLimit, cfg.ListCap)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/healthz", healthHandler)

	sessionHandler := handlers.NewSessionHandler(store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/{id}", sessionHandler)

	turnHandler := handlers.NewTurnHandler(processor, turnQueue, broadcaster, log)
	mux.Handle("/v1/sessions/{id}/turns", turnHandler)

	actionsHandler := handlers.NewActionsHandler(processor, log)
	mux.HandleFunc("/v1/sessions/{id}/actions", actionsHandler.Options)
	mux.HandleFunc("/v1/sessions/{id}/actions/analyze", actionsHandler.Analyze)
	mux.HandleFunc("/v1/sessions/{id}/classify", actionsHandler.Classify)

	onboardingHandler := handlers.NewOnboardingHandler(processor, log)
	mux.Handle("/v1/onboarding", onboardingHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
