package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/driftworld/turncore/internal/worker"
)

// ActionsHandler serves the read-only analysis endpoints. None of
// these write state, so they can run while a turn is queued.
// Routes:
// GET /v1/sessions/{id}/actions           - Suggest five action options
// POST /v1/sessions/{id}/actions/analyze  - Score a freeform action
// POST /v1/sessions/{id}/classify         - Split input into segments
type ActionsHandler struct {
	processor *worker.TurnProcessor
	logger    *slog.Logger
}

func NewActionsHandler(processor *worker.TurnProcessor, logger *slog.Logger) *ActionsHandler {
	return &ActionsHandler{
		processor: processor,
		logger:    logger,
	}
}

// AnalyzeActionRequest is the body for the analyze endpoint.
type AnalyzeActionRequest struct {
	Action string `json:"action"`
}

// ClassifyRequest is the body for the classify endpoint.
type ClassifyRequest struct {
	Text string `json:"text"`
}

func (h *ActionsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	sessionID, ok := sessionIDFromPath(w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.processor.SuggestOptions(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to suggest options", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to suggest action options")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ActionsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	sessionID, ok := sessionIDFromPath(w, r, h.logger)
	if !ok {
		return
	}

	var req AnalyzeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Action == "" {
		writeError(w, h.logger, http.StatusBadRequest, "action field is required")
		return
	}

	analysis, err := h.processor.AnalyzeAction(r.Context(), sessionID, req.Action)
	if err != nil {
		h.logger.Error("Failed to analyze action", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to analyze action")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, analysis)
}

func (h *ActionsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	sessionID, ok := sessionIDFromPath(w, r, h.logger)
	if !ok {
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Text == "" {
		writeError(w, h.logger, http.StatusBadRequest, "text field is required")
		return
	}

	resp, err := h.processor.ClassifyInput(r.Context(), sessionID, req.Text)
	if err != nil {
		h.logger.Error("Failed to classify input", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to classify input")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
