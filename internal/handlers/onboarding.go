package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/driftworld/turncore/internal/worker"
	"github.com/driftworld/turncore/pkg/chat"
)

// OnboardingHandler drives the pre-session story setup interview.
// Routes:
// POST /v1/onboarding - Advance the interview one step
type OnboardingHandler struct {
	processor *worker.TurnProcessor
	logger    *slog.Logger
}

func NewOnboardingHandler(processor *worker.TurnProcessor, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		processor: processor,
		logger:    logger,
	}
}

// OnboardingRequest carries the interview so far plus the player's
// latest answer. The client owns the transcript until onboarding
// completes and a session is created from finalConfig.
type OnboardingRequest struct {
	History []chat.ChatMessage `json:"history,omitempty"`
	Answer  string             `json:"answer,omitempty"`
}

func (h *OnboardingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for onboarding endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	var req OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	step, err := h.processor.NextOnboardingStep(r.Context(), req.History, req.Answer)
	if err != nil {
		h.logger.Error("Failed to advance onboarding", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to advance onboarding")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, step)
}
