package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string

	// LLM provider selection: "venice", "ollama", or "mock"
	LLMProvider  string
	VeniceAPIKey string
	VeniceModel  string
	OllamaURL    string
	OllamaModel  string

	// Turn budgeting knobs
	HistoryLimit int // transcript recency window per prompt
	ListCap      int // heavy-context list section cap
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		LLMProvider:  getEnv("LLM_PROVIDER", "ollama"),
		VeniceAPIKey: getEnv("VENICE_API_KEY", ""),
		VeniceModel:  getEnv("VENICE_MODEL", "llama-3.3-70b"),
		OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:  getEnv("OLLAMA_MODEL", "llama3.2"),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 100),
		ListCap:      getEnvInt("LIST_CAP", 5),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
