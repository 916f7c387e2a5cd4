package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/pkg/chat"
)

// Character lifecycle tags. A character's State describes what it is
// currently doing in the narrative, not where it is.
const (
	CharacterStateIdle   = "idle"
	CharacterStateActive = "active"
	CharacterStateDead   = "dead"
)

// Item is a single inventory entry.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Character represents a player or non-player character in the session.
// LocationID is a back-reference into GameState.Locations, not ownership.
type Character struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	LocationID  string         `json:"location_id,omitempty"`
	IsPlayer    bool           `json:"is_player,omitempty"`
	Stats       map[string]int `json:"stats,omitempty"` // hp/maxHp/gold required for the player
	Inventory   []Item         `json:"inventory,omitempty"`
	State       string         `json:"state,omitempty"` // e.g. "idle", "dead"
}

// Location is a place characters can occupy.
type Location struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// HeavyContext is the persistent narrative-memory summary carried across
// turns. It is a summary object, not a transcript.
type HeavyContext struct {
	MainMission     string   `json:"main_mission,omitempty"`
	CurrentMission  string   `json:"current_mission,omitempty"`
	ActiveProblems  []string `json:"active_problems,omitempty"`
	CurrentConcerns []string `json:"current_concerns,omitempty"`
	ImportantNotes  []string `json:"important_notes,omitempty"`
}

// GameState is the root aggregate for one running story session.
// It is mutated exclusively by the TurnReducer; callers must serialize
// turns for a session (there is no version token on deltas).
type GameState struct {
	ID                 uuid.UUID                  `json:"id"`
	Characters         map[string]Character       `json:"characters,omitempty"`
	Locations          map[string]Location        `json:"locations,omitempty"`
	CurrentLocationID  string                     `json:"current_location_id,omitempty"`
	PlayerCharacterID  string                     `json:"player_character_id,omitempty"`
	Messages           []chat.ChatMessage         `json:"messages,omitempty"`
	HeavyContext       HeavyContext               `json:"heavy_context,omitempty"`
	GridSnapshots      []GridSnapshot             `json:"grid_snapshots,omitempty"`
	TurnCount          int                        `json:"turn_count"`
	NarrativeThreads   map[string]NarrativeThread `json:"narrative_threads,omitempty"`
	PacingState        *PacingState               `json:"pacing_state,omitempty"`
	CreatedAt          time.Time                  `json:"created_at,omitempty"`
	UpdatedAt          time.Time                  `json:"updated_at,omitempty"`
}

func NewGameState() *GameState {
	return &GameState{
		ID:         uuid.New(),
		Characters: make(map[string]Character),
		Locations:  make(map[string]Location),
		Messages:   make([]chat.ChatMessage, 0),
		CreatedAt:  time.Now(),
	}
}

// DeepCopy returns an independent copy of the game state.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	var out GameState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	return &out, nil
}

// Player returns the player character, if present.
func (gs *GameState) Player() (Character, bool) {
	c, ok := gs.Characters[gs.PlayerCharacterID]
	if !ok || !c.IsPlayer {
		return Character{}, false
	}
	return c, true
}

// LatestGridSnapshot returns the most recent grid snapshot, or nil if
// the spatial map has never been populated.
func (gs *GameState) LatestGridSnapshot() *GridSnapshot {
	if len(gs.GridSnapshots) == 0 {
		return nil
	}
	return &gs.GridSnapshots[len(gs.GridSnapshots)-1]
}

// Validate checks the aggregate invariants. It is called after session
// creation and in tests; the reducer preserves these invariants by
// construction.
func (gs *GameState) Validate() error {
	playerCount := 0
	for id, c := range gs.Characters {
		if c.IsPlayer {
			playerCount++
			if id != gs.PlayerCharacterID {
				return fmt.Errorf("player character %q does not match player_character_id %q", id, gs.PlayerCharacterID)
			}
		}
		if c.LocationID != "" {
			if _, ok := gs.Locations[c.LocationID]; !ok {
				return fmt.Errorf("character %q references unknown location %q", id, c.LocationID)
			}
		}
	}
	if playerCount != 1 {
		return fmt.Errorf("expected exactly one player character, found %d", playerCount)
	}
	if gs.CurrentLocationID != "" {
		if _, ok := gs.Locations[gs.CurrentLocationID]; !ok {
			return fmt.Errorf("current_location_id %q does not resolve to a location", gs.CurrentLocationID)
		}
	}
	for i := range gs.GridSnapshots {
		if err := gs.GridSnapshots[i].Validate(); err != nil {
			return fmt.Errorf("grid snapshot %d: %w", i, err)
		}
	}
	for i := 1; i < len(gs.Messages); i++ {
		if gs.Messages[i].PageNumber <= gs.Messages[i-1].PageNumber {
			return fmt.Errorf("message page numbers not strictly increasing at index %d", i)
		}
	}
	return nil
}
