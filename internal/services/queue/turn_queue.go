package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftworld/turncore/pkg/queue"
)

// turnsKey is the global queue all workers consume from.
const turnsKey = "turns"

// TurnQueue manages the global turn queue plus per-session story beat
// lists. Turn requests for a session are processed one at a time, in
// submission order.
type TurnQueue struct {
	client *Client
}

func NewTurnQueue(client *Client) *TurnQueue {
	return &TurnQueue{
		client: client,
	}
}

func beatKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("story-beats:%s", sessionID.String())
}

// EnqueueBeat adds a story beat prompt to the end of the session's
// beat list. Beats are injected into the next turn's narration.
func (tq *TurnQueue) EnqueueBeat(ctx context.Context, sessionID uuid.UUID, beatPrompt string) error {
	key := beatKey(sessionID)
	err := tq.client.rdb.RPush(ctx, key, beatPrompt).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue story beat: %w", err)
	}
	return nil
}

// DequeueBeats removes and returns all queued story beats for a session
func (tq *TurnQueue) DequeueBeats(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	key := beatKey(sessionID)

	beats, err := tq.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to dequeue story beats: %w", err)
	}
	if len(beats) > 0 {
		if err := tq.client.rdb.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to clear story beat list after dequeue: %w", err)
		}
	}
	return beats, nil
}

// PeekBeats returns queued story beats without removing them
func (tq *TurnQueue) PeekBeats(ctx context.Context, sessionID uuid.UUID, limit int) ([]string, error) {
	key := beatKey(sessionID)

	end := int64(limit - 1)
	if limit <= 0 {
		end = -1 // Get all
	}
	beats, err := tq.client.rdb.LRange(ctx, key, 0, end).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to peek story beats: %w", err)
	}
	return beats, nil
}

// ClearBeats removes all story beats for a session
func (tq *TurnQueue) ClearBeats(ctx context.Context, sessionID uuid.UUID) error {
	key := beatKey(sessionID)
	err := tq.client.rdb.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to clear story beat list: %w", err)
	}
	return nil
}

// BeatDepth returns the number of story beats queued for a session
func (tq *TurnQueue) BeatDepth(ctx context.Context, sessionID uuid.UUID) (int, error) {
	key := beatKey(sessionID)
	count, err := tq.client.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get beat depth: %w", err)
	}
	return int(count), nil
}

// FormatBeats returns all queued story beats formatted as a single
// narration directive block.
func (tq *TurnQueue) FormatBeats(ctx context.Context, sessionID uuid.UUID) (string, error) {
	beats, err := tq.PeekBeats(ctx, sessionID, 0)
	if err != nil {
		return "", err
	}
	if len(beats) == 0 {
		return "", nil
	}

	var formatted string
	for i, beat := range beats {
		if i == 0 {
			formatted = "STORY BEAT: " + beat
		} else {
			formatted += "\n\nSTORY BEAT: " + beat
		}
	}
	return formatted, nil
}

// EnqueueRequest adds a turn request to the global queue
func (tq *TurnQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	err = tq.client.rdb.RPush(ctx, turnsKey, data).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue
// Returns nil if queue is empty
func (tq *TurnQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := tq.client.rdb.LPop(ctx, turnsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// BlockingDequeueRequest blocks until a request is available, then returns it
func (tq *TurnQueue) BlockingDequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := tq.client.rdb.BLPop(ctx, 0, turnsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// RequestQueueDepth returns the number of requests in the global queue
func (tq *TurnQueue) RequestQueueDepth(ctx context.Context) (int, error) {
	count, err := tq.client.rdb.LLen(ctx, turnsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}
