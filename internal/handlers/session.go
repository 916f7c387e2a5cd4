package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/internal/storage"
	"github.com/driftworld/turncore/pkg/actor"
	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

// SessionHandler manages session lifecycle.
// Routes:
// POST /v1/sessions          - Create a new session from a story config
// GET /v1/sessions/{id}      - Read a session by ID
// DELETE /v1/sessions/{id}   - Delete a session by ID
type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

// CreateSessionRequest defines the request body for creating a session.
// Config is typically the finalConfig produced by onboarding. Locations
// and the starting location are optional; a single default location is
// created when absent.
type CreateSessionRequest struct {
	Config             schema.StoryConfig        `json:"config"`
	OpeningNarration   string                    `json:"opening_narration,omitempty"`
	Locations          map[string]state.Location `json:"locations,omitempty"`
	StartingLocationID string                    `json:"starting_location_id,omitempty"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		id, ok := sessionIDFromPath(w, r, h.logger)
		if !ok {
			return
		}
		h.handleRead(w, r, id)

	case http.MethodDelete:
		id, ok := sessionIDFromPath(w, r, h.logger)
		if !ok {
			return
		}
		h.handleDelete(w, r, id)

	default:
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	player, err := actor.NewPlayerFromConfig(&req.Config)
	if err != nil {
		h.logger.Warn("Failed to build player from config", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to build player: "+err.Error())
		return
	}

	gs := state.NewGameState()

	// Locations: use the supplied map, or seed one from the story
	// setting so the player always starts somewhere resolvable.
	if len(req.Locations) > 0 {
		gs.Locations = req.Locations
	} else {
		name := req.Config.Setting
		if name == "" {
			name = "The Beginning"
		}
		gs.Locations = map[string]state.Location{
			"start": {Name: name},
		}
	}

	startID := req.StartingLocationID
	if startID == "" {
		for id := range gs.Locations {
			startID = id
			break
		}
	}
	if _, ok := gs.Locations[startID]; !ok {
		h.logger.Warn("Starting location does not resolve", "starting_location_id", startID)
		writeError(w, h.logger, http.StatusBadRequest, "starting_location_id does not match a supplied location")
		return
	}
	gs.CurrentLocationID = startID

	pc := player.ToCharacter(startID)
	gs.Characters[pc.ID] = pc
	gs.PlayerCharacterID = pc.ID

	if req.OpeningNarration != "" {
		gs.Messages = append(gs.Messages, chat.ChatMessage{
			ID:         uuid.New(),
			Role:       chat.ChatRoleAgent,
			Content:    req.OpeningNarration,
			PageNumber: 1,
			Timestamp:  time.Now(),
		})
	}

	if err := gs.Validate(); err != nil {
		h.logger.Warn("New session failed validation", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session: "+err.Error())
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Debug("Session created successfully", "id", gs.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	if gs == nil {
		h.logger.Warn("Session not found", "id", sessionID.String())
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted successfully", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}
