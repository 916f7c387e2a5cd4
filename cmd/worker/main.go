package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/driftworld/turncore/internal/config"
	"github.com/driftworld/turncore/internal/logger"
	"github.com/driftworld/turncore/internal/services"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/storage"
	"github.com/driftworld/turncore/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting turncore Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	turnQueue := queue.NewTurnQueue(queueClient)
	log.Info("Queue service initialized successfully")

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	var llmService services.LLMService
	modelName := cfg.VeniceModel
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
		modelName = cfg.OllamaModel
		log.Info("Using Ollama LLM provider", "model", cfg.OllamaModel)
	case "mock":
		llmService = services.NewMockLLMService()
		log.Warn("Using mock LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"venice", "ollama", "mock"})
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, modelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", modelName)
		os.Exit(1)
	}
	log.Info("LLM service initialized successfully", "model", modelName)

	processor := worker.NewTurnProcessor(store, llmService, turnQueue, log, cfg.HistoryLimit, cfg.ListCap)
	log.Info("Turn processor initialized successfully")

	// Separate Redis client for session locking
	// (separate from queue client to avoid connection conflicts)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	log.Info("Redis connection established successfully")

	w := worker.New(turnQueue, processor, redisClient, log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for requests...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the worker time to finish the current turn
	time.Sleep(2 * time.Second)

	log.Info("Worker exited")
}
