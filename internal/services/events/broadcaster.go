package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeTurnQueued     EventType = "turn.queued"
	EventTypeTurnProcessing EventType = "turn.processing"
	EventTypeTurnCompleted  EventType = "turn.completed"
	EventTypeTurnFailed     EventType = "turn.failed"
	EventTypeStateUpdated   EventType = "session.state_updated"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes turn lifecycle events to Redis Pub/Sub so
// clients can follow a session without polling.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ChannelFor returns the Pub/Sub channel for a session.
func ChannelFor(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// PublishTurnQueued publishes a turn.queued event
func (b *Broadcaster) PublishTurnQueued(ctx context.Context, sessionID uuid.UUID, requestID string, requestType string) error {
	event := Event{
		Type:      EventTypeTurnQueued,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status": "queued",
			"type":   requestType,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishTurnProcessing publishes a turn.processing event
func (b *Broadcaster) PublishTurnProcessing(ctx context.Context, sessionID uuid.UUID, requestID string, requestType string, userMessage string) error {
	event := Event{
		Type:      EventTypeTurnProcessing,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status":       "processing",
			"type":         requestType,
			"user_message": userMessage,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishTurnCompleted publishes a turn.completed event
func (b *Broadcaster) PublishTurnCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]any) error {
	event := Event{
		Type:      EventTypeTurnCompleted,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishTurnFailed publishes a turn.failed event
func (b *Broadcaster) PublishTurnFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error {
	event := Event{
		Type:      EventTypeTurnFailed,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishStateUpdated publishes a session.state_updated event
func (b *Broadcaster) PublishStateUpdated(ctx context.Context, sessionID uuid.UUID, turn int, pacingLevel string) error {
	event := Event{
		Type:      EventTypeStateUpdated,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"turn":   turn,
			"pacing": pacingLevel,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := ChannelFor(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
