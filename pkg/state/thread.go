package state

// Narrative thread lifecycle: planted -> referenced -> resolved, with
// removal reachable from any non-terminal state. Transitions out of
// order are no-ops, never errors.
const (
	ThreadStatusPlanted    = "planted"
	ThreadStatusReferenced = "referenced"
	ThreadStatusResolved   = "resolved"
)

// Narrative thread types, as emitted by the model.
const (
	ThreadTypeForeshadowing = "foreshadowing"
	ThreadTypeCallback      = "callback"
	ThreadTypeChekhovsGun   = "chekhovs_gun"
)

// ValidThreadType reports whether t is a recognized thread type.
func ValidThreadType(t string) bool {
	switch t {
	case ThreadTypeForeshadowing, ThreadTypeCallback, ThreadTypeChekhovsGun:
		return true
	}
	return false
}

// NarrativeThread is a tracked foreshadowing/callback/Chekhov's-gun
// record with a plant -> reference -> resolve lifecycle.
type NarrativeThread struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	PlantedTurn  int    `json:"planted_turn"`
	ResolvedTurn int    `json:"resolved_turn,omitempty"`
}
