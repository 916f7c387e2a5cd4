package state

// Wire-format deltas emitted by the model. The model is never asked to
// reproduce entire collections; it emits these compact change
// instructions instead, which the TurnReducer applies to the current
// snapshot. JSON field names follow the model-facing wire schemas
// (camelCase), unlike the persisted game state (snake_case).

// Field change actions for single-value slots.
const (
	FieldActionSet   = "set"
	FieldActionClear = "clear"
)

// List change actions. Adds are idempotent (no duplicate entries);
// removes of absent values are no-ops.
const (
	ListActionAdd    = "add"
	ListActionRemove = "remove"
)

// MaxListItems is the default cap on heavy-context list sections.
// The reducer enforces it by dropping oldest entries first.
const MaxListItems = 5

// FieldChange sets or clears a single-value slot.
type FieldChange struct {
	Action string `json:"action"` // "set" or "clear"
	Value  string `json:"value,omitempty"`
}

// ListChange adds or removes one list entry. Changes are applied in
// the order they appear.
type ListChange struct {
	Action string `json:"action"` // "add" or "remove"
	Value  string `json:"value"`
}

// HeavyContextChanges is a delta against the persistent narrative
// memory. Nil/absent sections are left untouched (delta, not
// replacement).
type HeavyContextChanges struct {
	MainMission     *FieldChange `json:"mainMission,omitempty"`
	CurrentMission  *FieldChange `json:"currentMission,omitempty"`
	ActiveProblems  []ListChange `json:"activeProblems,omitempty"`
	CurrentConcerns []ListChange `json:"currentConcerns,omitempty"`
	ImportantNotes  []ListChange `json:"importantNotes,omitempty"`
}

// IsEmpty reports whether the delta carries no changes.
func (c *HeavyContextChanges) IsEmpty() bool {
	return c == nil || (c.MainMission == nil &&
		c.CurrentMission == nil &&
		len(c.ActiveProblems) == 0 &&
		len(c.CurrentConcerns) == 0 &&
		len(c.ImportantNotes) == 0)
}

// HeavyContextResponse is the model's reply to a heavy-context update
// request. When ShouldUpdate is false, Changes is ignored even if
// present.
type HeavyContextResponse struct {
	ShouldUpdate bool                 `json:"shouldUpdate"`
	Changes      *HeavyContextChanges `json:"changes,omitempty"`
}

// GridDelta is an incremental spatial-map update. Elements listed in
// RemovedElements are deleted first, then Elements are upserted by
// symbol, so a symbol can be removed and re-added in the same delta
// (the transformation pattern: "Oak Tree" removed, "Tree Stump" added).
type GridDelta struct {
	CharacterPositions []CharacterPosition `json:"characterPositions,omitempty"`
	Elements           []GridElement       `json:"elements,omitempty"`
	RemovedElements    []string            `json:"removedElements,omitempty"`
}

// IsEmpty reports whether the delta carries no changes.
func (d *GridDelta) IsEmpty() bool {
	return d == nil || (len(d.CharacterPositions) == 0 &&
		len(d.Elements) == 0 &&
		len(d.RemovedElements) == 0)
}

// GridUpdateResponse is the model's reply to a grid update request.
type GridUpdateResponse struct {
	ShouldUpdate bool       `json:"shouldUpdate"`
	Changes      *GridDelta `json:"changes,omitempty"`
}

// Narrative thread change actions.
const (
	ThreadActionPlant     = "plant"
	ThreadActionReference = "reference"
	ThreadActionResolve   = "resolve"
	ThreadActionRemove    = "remove"
)

// NarrativeThreadChange is one lifecycle transition for a thread.
type NarrativeThreadChange struct {
	Action      string `json:"action"` // plant, reference, resolve, remove
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`        // required for plant
	Description string `json:"description,omitempty"` // required for plant
}

// PacingAnalysis is the model's per-turn tension classification.
type PacingAnalysis struct {
	CurrentLevel string `json:"currentLevel"`
	Trend        string `json:"trend,omitempty"`
	Reasoning    string `json:"reasoning,omitempty"`
}
