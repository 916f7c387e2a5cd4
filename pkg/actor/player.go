package actor

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

// Default sheet values for players created from onboarding config.
const (
	DefaultMaxHP = 20
	DefaultGold  = 10
)

// PlayerSpec is the serializable specification for the player
// character. The runtime sheet (hit points, attributes) is backed by a
// d20.Actor built from this spec.
type PlayerSpec struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Background  string         `json:"background,omitempty"`
	Personality string         `json:"personality,omitempty"`
	HP          int            `json:"hp,omitempty"` // Current HP (for serialization)
	MaxHP       int            `json:"max_hp,omitempty"`
	Gold        int            `json:"gold,omitempty"`
	Attributes  map[string]int `json:"attributes,omitempty"`
	Inventory   []state.Item   `json:"inventory,omitempty"`
}

// Player is the runtime representation of the player character.
type Player struct {
	Spec  *PlayerSpec
	Actor *d20.Actor // Built at runtime from PlayerSpec
}

// NewPlayerFromSpec creates a Player from a PlayerSpec.
func NewPlayerFromSpec(spec *PlayerSpec) (*Player, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.MaxHP <= 0 {
		spec.MaxHP = DefaultMaxHP
	}

	attrs := map[string]int{"gold": spec.Gold}
	for k, v := range spec.Attributes {
		attrs[k] = v
	}

	actor, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Player{Spec: spec, Actor: actor}, nil
}

// NewPlayerFromConfig creates a Player from a completed onboarding
// configuration. Absent fields fall back to documented defaults.
func NewPlayerFromConfig(cfg *schema.StoryConfig) (*Player, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	name := cfg.PlayerName
	if name == "" {
		name = "The Protagonist"
	}
	spec := &PlayerSpec{
		ID:          "player",
		Name:        name,
		Description: cfg.Background,
		Background:  cfg.Background,
		Personality: cfg.Personality,
		MaxHP:       DefaultMaxHP,
		Gold:        DefaultGold,
	}
	return NewPlayerFromSpec(spec)
}

// ToCharacter converts the player's current sheet into the game-state
// character record. The stats map always carries hp, maxHp, and gold.
func (p *Player) ToCharacter(locationID string) state.Character {
	stats := map[string]int{
		"hp":    p.Actor.HP(),
		"maxHp": p.Actor.MaxHP(),
		"gold":  p.Spec.Gold,
	}
	if v, ok := p.Actor.Attribute("gold"); ok {
		stats["gold"] = v
	}
	for k := range p.Spec.Attributes {
		if v, ok := p.Actor.Attribute(k); ok {
			stats[k] = v
		}
	}

	return state.Character{
		ID:          p.Spec.ID,
		Name:        p.Spec.Name,
		Description: p.Spec.Description,
		LocationID:  locationID,
		IsPlayer:    true,
		Stats:       stats,
		Inventory:   p.Spec.Inventory,
		State:       state.CharacterStateIdle,
	}
}

// BuildPrompt constructs the player-character section for the system
// prompt. Returns an empty string if p is nil.
func BuildPrompt(p *Player) string {
	if p == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("REMEMBER: In this game, the user is controlling: ")
	sb.WriteString(p.Spec.Name)
	if p.Spec.Description != "" {
		sb.WriteString(". " + p.Spec.Description)
	}
	if p.Spec.Personality != "" {
		sb.WriteString(" Personality: " + p.Spec.Personality)
	}
	return sb.String()
}
