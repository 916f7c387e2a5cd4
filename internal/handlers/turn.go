package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/internal/services/events"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/worker"
	"github.com/driftworld/turncore/pkg/chat"
	queuePkg "github.com/driftworld/turncore/pkg/queue"
)

// TurnHandler submits player turns.
// Routes:
// POST /v1/sessions/{id}/turns          - Resolve a turn synchronously
// POST /v1/sessions/{id}/turns?async=1  - Enqueue for the worker, 202
type TurnHandler struct {
	processor   *worker.TurnProcessor
	turnQueue   *queue.TurnQueue
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewTurnHandler(processor *worker.TurnProcessor, turnQueue *queue.TurnQueue, broadcaster *events.Broadcaster, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		processor:   processor,
		turnQueue:   turnQueue,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// QueuedTurnResponse is returned for async submissions.
type QueuedTurnResponse struct {
	RequestID string    `json:"request_id"`
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	sessionID, ok := sessionIDFromPath(w, r, h.logger)
	if !ok {
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.SessionID = sessionID

	if err := req.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("async") != "" {
		h.handleAsync(w, r, req)
		return
	}

	resp, err := h.processor.ProcessTurn(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to process turn", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// handleAsync enqueues the turn for the worker and returns immediately.
func (h *TurnHandler) handleAsync(w http.ResponseWriter, r *http.Request, req chat.TurnRequest) {
	queueReq := &queuePkg.Request{
		RequestID:  uuid.New().String(),
		Type:       queuePkg.RequestTypeTurn,
		SessionID:  req.SessionID,
		Message:    req.Message,
		EnqueuedAt: time.Now(),
	}

	if err := h.turnQueue.EnqueueRequest(r.Context(), queueReq); err != nil {
		h.logger.Error("Failed to enqueue turn", "error", err, "session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue turn")
		return
	}

	if err := h.broadcaster.PublishTurnQueued(r.Context(), req.SessionID, queueReq.RequestID, string(queueReq.Type)); err != nil {
		h.logger.Error("Failed to publish queued event", "error", err)
	}

	h.logger.Info("Turn enqueued",
		"request_id", queueReq.RequestID,
		"session_id", req.SessionID.String())

	writeJSON(w, h.logger, http.StatusAccepted, QueuedTurnResponse{
		RequestID: queueReq.RequestID,
		SessionID: req.SessionID,
		Status:    "queued",
	})
}
