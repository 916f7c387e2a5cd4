package state

import (
	"fmt"
	"regexp"
)

// GridSize is the width and height of the spatial map. Coordinates are
// constrained to [0, GridSize-1] on both axes.
const GridSize = 10

var symbolPattern = regexp.MustCompile(`^[A-Z]$`)

// Position is an absolute grid coordinate. Deltas always express
// "move to", never "move by", so repeated application cannot drift.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether the position lies on the grid.
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}

// Clamp returns the nearest in-bounds position.
func (p Position) Clamp() Position {
	return Position{X: clampCoord(p.X), Y: clampCoord(p.Y)}
}

func clampCoord(v int) int {
	if v < 0 {
		return 0
	}
	if v >= GridSize {
		return GridSize - 1
	}
	return v
}

// CharacterPosition places one character on the grid.
type CharacterPosition struct {
	CharacterID   string   `json:"characterId"`
	CharacterName string   `json:"characterName"`
	Position      Position `json:"position"`
	IsPlayer      bool     `json:"isPlayer,omitempty"`
}

// GridElement is a scene element (door, chest, tree) on the grid.
// Symbols are single uppercase letters, unique within a snapshot.
type GridElement struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Position    Position `json:"position"`
}

// ValidSymbol reports whether s is a legal element symbol (A-Z).
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// GridSnapshot is the full materialized map state after a turn. It is
// always the cumulative result of applying all prior deltas; deltas
// exist only in the wire format, never in persisted state.
type GridSnapshot struct {
	Turn               int                 `json:"turn"`
	CharacterPositions []CharacterPosition `json:"characterPositions,omitempty"`
	Elements           []GridElement       `json:"elements,omitempty"`
}

// Element returns the element with the given symbol, if present.
func (s *GridSnapshot) Element(symbol string) (GridElement, bool) {
	for _, e := range s.Elements {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return GridElement{}, false
}

// Validate checks snapshot invariants: unique symbols and in-bounds
// coordinates.
func (s *GridSnapshot) Validate() error {
	seen := make(map[string]bool, len(s.Elements))
	for _, e := range s.Elements {
		if !ValidSymbol(e.Symbol) {
			return fmt.Errorf("invalid element symbol %q", e.Symbol)
		}
		if seen[e.Symbol] {
			return fmt.Errorf("duplicate element symbol %q", e.Symbol)
		}
		seen[e.Symbol] = true
		if !e.Position.InBounds() {
			return fmt.Errorf("element %q position out of bounds: (%d,%d)", e.Symbol, e.Position.X, e.Position.Y)
		}
	}
	for _, cp := range s.CharacterPositions {
		if !cp.Position.InBounds() {
			return fmt.Errorf("character %q position out of bounds: (%d,%d)", cp.CharacterID, cp.Position.X, cp.Position.Y)
		}
	}
	return nil
}

func (s *GridSnapshot) copy() GridSnapshot {
	out := GridSnapshot{Turn: s.Turn}
	out.CharacterPositions = make([]CharacterPosition, len(s.CharacterPositions))
	copy(out.CharacterPositions, s.CharacterPositions)
	out.Elements = make([]GridElement, len(s.Elements))
	copy(out.Elements, s.Elements)
	return out
}
