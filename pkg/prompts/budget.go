package prompts

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/state"
)

// DefaultHistoryLimit is the recency window applied when no explicit
// limit is configured.
const DefaultHistoryLimit = 100

// Proximity bands for the grid projection, derived from Manhattan
// distance to the player. Derived per request, never persisted.
const (
	ProximityAdjacent = "adjacent" // distance <= 1
	ProximityNearby   = "nearby"   // distance <= 3
	ProximityFar      = "far"
)

var titleCaser = cases.Title(language.English)

// SelectRecentMessages returns the last limit messages, preserving
// order. Empty or invalid input yields an empty slice; this never
// fails.
func SelectRecentMessages(messages []chat.ChatMessage, limit int) []chat.ChatMessage {
	if len(messages) == 0 {
		return []chat.ChatMessage{}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(messages) <= limit {
		out := make([]chat.ChatMessage, len(messages))
		copy(out, messages)
		return out
	}
	out := make([]chat.ChatMessage, limit)
	copy(out, messages[len(messages)-limit:])
	return out
}

// SummarizeHeavyContext renders the persistent narrative memory as
// compact text. Absent fields render as an explicit "None defined"
// placeholder rather than being omitted, so the model cannot confuse
// "unknown" with "empty".
func SummarizeHeavyContext(hc state.HeavyContext) string {
	var sb strings.Builder
	sb.WriteString("Main mission: " + valueOrNone(hc.MainMission) + "\n")
	sb.WriteString("Current mission: " + valueOrNone(hc.CurrentMission) + "\n")
	sb.WriteString("Active problems: " + listOrNone(hc.ActiveProblems) + "\n")
	sb.WriteString("Current concerns: " + listOrNone(hc.CurrentConcerns) + "\n")
	sb.WriteString("Important notes: " + listOrNone(hc.ImportantNotes))
	return sb.String()
}

func valueOrNone(s string) string {
	if s == "" {
		return "None defined"
	}
	return s
}

func listOrNone(list []string) string {
	if len(list) == 0 {
		return "None defined"
	}
	return strings.Join(list, "; ")
}

// ProjectedCharacter is a character annotated with its distance from
// the player.
type ProjectedCharacter struct {
	CharacterID string
	Name        string
	Position    state.Position
	Distance    int
	Proximity   string
	IsPlayer    bool
}

// ProjectedElement is a scene element annotated with its distance from
// the player.
type ProjectedElement struct {
	Symbol    string
	Name      string
	Position  state.Position
	Distance  int
	Proximity string
}

// GridContext is the per-request spatial projection included in grid
// and action prompts.
type GridContext struct {
	PlayerPosition state.Position
	Characters     []ProjectedCharacter
	Elements       []ProjectedElement
}

// ProjectGridContext computes Manhattan distance from the player to
// every other character and element, with a coarse proximity band for
// each. Output order follows snapshot order, so identical input yields
// identical output.
func ProjectGridContext(snapshot *state.GridSnapshot, playerPos state.Position) *GridContext {
	gc := &GridContext{PlayerPosition: playerPos}
	if snapshot == nil {
		return gc
	}
	for _, cp := range snapshot.CharacterPositions {
		d := manhattan(playerPos, cp.Position)
		gc.Characters = append(gc.Characters, ProjectedCharacter{
			CharacterID: cp.CharacterID,
			Name:        titleCaser.String(cp.CharacterName),
			Position:    cp.Position,
			Distance:    d,
			Proximity:   proximityBand(d),
			IsPlayer:    cp.IsPlayer,
		})
	}
	for _, e := range snapshot.Elements {
		d := manhattan(playerPos, e.Position)
		gc.Elements = append(gc.Elements, ProjectedElement{
			Symbol:    e.Symbol,
			Name:      titleCaser.String(e.Name),
			Position:  e.Position,
			Distance:  d,
			Proximity: proximityBand(d),
		})
	}
	return gc
}

func manhattan(a, b state.Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func proximityBand(d int) string {
	switch {
	case d <= 1:
		return ProximityAdjacent
	case d <= 3:
		return ProximityNearby
	default:
		return ProximityFar
	}
}

// Render returns the grid context as deterministic prompt text.
func (gc *GridContext) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Player position: (%d,%d)\n", gc.PlayerPosition.X, gc.PlayerPosition.Y)
	if len(gc.Characters) == 0 && len(gc.Elements) == 0 {
		sb.WriteString("The map is empty.")
		return sb.String()
	}
	for _, c := range gc.Characters {
		if c.IsPlayer {
			continue
		}
		fmt.Fprintf(&sb, "%s at (%d,%d), %s (distance %d)\n", c.Name, c.Position.X, c.Position.Y, c.Proximity, c.Distance)
	}
	for _, e := range gc.Elements {
		fmt.Fprintf(&sb, "[%s] %s at (%d,%d), %s (distance %d)\n", e.Symbol, e.Name, e.Position.X, e.Position.Y, e.Proximity, e.Distance)
	}
	return strings.TrimRight(sb.String(), "\n")
}
