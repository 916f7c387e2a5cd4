package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftworld/turncore/pkg/state"
)

const gameStateKeyPrefix = "gamestate:"

// GameStateTTL is how long an idle session survives before expiring.
const GameStateTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

// NewRedisStorageWithClient wraps an existing client (used by tests
// and by processes that share one connection pool).
func NewRedisStorageWithClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// SaveGameState writes the full session document in one SET. The write
// is a full replace, never a partial update.
func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal game state", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	key := gameStateKeyPrefix + id.String()
	if err := r.client.Set(ctx, key, string(data), GameStateTTL).Err(); err != nil {
		r.logger.Error("Failed to save game state", "uuid", id, "error", err)
		return fmt.Errorf("failed to save game state: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	key := gameStateKeyPrefix + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Game state not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load game state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("Game state not found", "uuid", id)
		return nil, nil
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		r.logger.Error("Failed to unmarshal game state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	key := gameStateKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete game state", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	return nil
}

// ListGameStates returns the IDs of all live sessions.
func (r *RedisStorage) ListGameStates(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, gameStateKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan game states: %w", err)
		}
		for _, key := range keys {
			id, err := uuid.Parse(key[len(gameStateKeyPrefix):])
			if err != nil {
				r.logger.Warn("Skipping malformed game state key", "key", key)
				continue
			}
			ids = append(ids, id)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}
