package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnRequest represents a player action submitted to the turncore api.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"` // Unique ID for the game session
	Message   string    `json:"message"`
}

// TurnResponse represents the narration and state summary returned
// by the turncore api after a turn resolves.
type TurnResponse struct {
	SessionID uuid.UUID     `json:"session_id,omitempty"`
	Message   string        `json:"message,omitempty"`
	TurnCount int           `json:"turn_count,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"` // Recent transcript window
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator response
	ChatRoleSystem = "system"    // System context
)

// ChatMessage is a single entry in the session transcript.
// PageNumber orders the transcript for resume; Sanitize renumbers it
// to be contiguous from 1. A zero PageNumber means unassigned.
type ChatMessage struct {
	ID         uuid.UUID `json:"id,omitempty"`
	Role       string    `json:"role"` // "user", "assistant", "system"
	Content    string    `json:"content"`
	PageNumber int       `json:"page_number,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

func (tr *TurnRequest) Validate() error {
	if tr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
