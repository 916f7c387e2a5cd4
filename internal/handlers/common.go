package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// sessionIDFromPath parses the {id} path segment. Reports the error to
// the client itself; callers just bail on !ok.
func sessionIDFromPath(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		writeError(w, logger, http.StatusBadRequest, "Session ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(w, logger, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}
