package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftworld/turncore/internal/services/events"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/pkg/chat"
	queuePkg "github.com/driftworld/turncore/pkg/queue"
)

const workerTimeout = 5 * time.Second

// Worker consumes the turn queue. A session lock keeps turns for one
// session strictly serialized even with multiple workers running.
type Worker struct {
	id          string
	queue       *queue.TurnQueue
	processor   *TurnProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(turnQueue *queue.TurnQueue, processor *TurnProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	broadcaster := events.NewBroadcaster(redisClient, log)

	return &Worker{
		id:          workerID,
		queue:       turnQueue,
		processor:   processor,
		broadcaster: broadcaster,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeueRequest(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Timeout or shutdown, not a real error
			return nil
		}
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"session_id", req.SessionID.String(),
	)

	// Try to acquire the session lock
	locked, err := w.acquireSessionLock(req.SessionID)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		// Another worker holds this session. Re-queue at the end and
		// move on to the next request.
		w.log.Info("Session already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseSessionLock(req.SessionID)
	return w.processRequest(req)
}

// acquireSessionLock attempts to acquire a lock for a session.
// Returns true if the lock was acquired, false if already locked.
func (w *Worker) acquireSessionLock(sessionID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, 2*time.Minute).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseSessionLock releases the lock for a session
func (w *Worker) releaseSessionLock(sessionID uuid.UUID) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release session lock", "error", err, "session_id", sessionID.String())
	}
}

// processRequest resolves a single request with the TurnProcessor
func (w *Worker) processRequest(req *queuePkg.Request) error {
	start := time.Now()

	var userMessage string
	switch req.Type {
	case queuePkg.RequestTypeTurn:
		userMessage = req.Message
	case queuePkg.RequestTypeStoryBeat:
		userMessage = fmt.Sprintf("STORY BEAT: %s", req.BeatPrompt)
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}

	if err := w.broadcaster.PublishTurnProcessing(w.ctx, req.SessionID, req.RequestID, string(req.Type), userMessage); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Event publishing never fails the request
	}

	turnReq := chat.TurnRequest{
		SessionID: req.SessionID,
		Message:   userMessage,
	}

	resp, err := w.processor.ProcessTurn(w.ctx, turnReq)
	if err != nil {
		w.log.Error("Failed to process turn",
			"error", err,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if pubErr := w.broadcaster.PublishTurnFailed(w.ctx, req.SessionID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process turn: %w", err)
	}

	w.log.Info("Turn processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"turn_count", resp.TurnCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]any{
		"message":     resp.Message,
		"turn_count":  resp.TurnCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err := w.broadcaster.PublishTurnCompleted(w.ctx, req.SessionID, req.RequestID, result); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}

	return nil
}
