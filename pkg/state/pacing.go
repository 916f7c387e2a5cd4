package state

// Narrative tension levels, ordered from quietest to loudest.
const (
	PacingCalm        = "calm"
	PacingBuilding    = "building"
	PacingHighTension = "high_tension"
	PacingFalling     = "falling_action"
)

// Pacing trends.
const (
	TrendRising  = "rising"
	TrendSteady  = "steady"
	TrendFalling = "falling"
)

// ValidPacingLevel reports whether level is in the closed set.
func ValidPacingLevel(level string) bool {
	switch level {
	case PacingCalm, PacingBuilding, PacingHighTension, PacingFalling:
		return true
	}
	return false
}

// ValidPacingTrend reports whether trend is in the closed set.
func ValidPacingTrend(trend string) bool {
	switch trend {
	case TrendRising, TrendSteady, TrendFalling:
		return true
	}
	return false
}

// PacingState is the current narrative-tension classification, updated
// at most once per turn.
type PacingState struct {
	CurrentLevel     string `json:"current_level"`
	Trend            string `json:"trend,omitempty"`
	TurnsAtLevel     int    `json:"turns_at_level"`
	LastClimaxTurn   int    `json:"last_climax_turn,omitempty"`
	LastBreatherTurn int    `json:"last_breather_turn,omitempty"`
}
