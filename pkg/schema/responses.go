package schema

// Wire types for the turn schemas that do not feed the state reducer
// directly. The reducer-facing wire types (grid update, heavy context,
// narrative threads, pacing) live in pkg/state next to the reducer.

// ActionOption is one suggested player action with its outcome odds.
// Chances are percentages in [0, MaxChance]; the remainder is the
// neutral outcome band.
type ActionOption struct {
	Text       string `json:"text"`
	GoodChance int    `json:"goodChance"`
	BadChance  int    `json:"badChance"`
	GoodHint   string `json:"goodHint,omitempty"`
	BadHint    string `json:"badHint,omitempty"`
}

// ActionOptionsResponse carries the exactly-five suggested actions for
// the next turn.
type ActionOptionsResponse struct {
	Options []ActionOption `json:"options"`
}

// CustomActionAnalysis scores a free-form player action. Repeated
// submission of the same action against the same state must yield the
// same odds, which is why the request path through the budgeter is
// deterministic.
type CustomActionAnalysis struct {
	GoodChance int    `json:"goodChance"`
	BadChance  int    `json:"badChance"`
	GoodHint   string `json:"goodHint,omitempty"`
	BadHint    string `json:"badHint,omitempty"`
	Reasoning  string `json:"reasoning"`
}

// Text segment types for classification.
const (
	SegmentTypeAction = "action"
	SegmentTypeSpeech = "speech"
)

// TextSegment is one classified slice of player input.
type TextSegment struct {
	Type    string `json:"type"` // "action" or "speech"
	Content string `json:"content"`
}

// TextClassificationResponse splits player input into ordered segments.
type TextClassificationResponse struct {
	Segments []TextSegment `json:"segments"`
}

// Onboarding control types.
const (
	ControlTypeText   = "text"
	ControlTypeSelect = "select"
	ControlTypeToggle = "toggle"
)

// StoryConfig is the completed onboarding output. Every recognized
// field is enumerated here; absent fields fall back to the zero value
// and the prompt layer substitutes genre defaults.
type StoryConfig struct {
	Title       string `json:"title,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Setting     string `json:"setting,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	Background  string `json:"background,omitempty"`
	Personality string `json:"personality,omitempty"`
	Tone        string `json:"tone,omitempty"`
}

// OnboardingStep is one question in the story setup flow. When
// IsComplete is true, FinalConfig carries the assembled configuration
// and Question/Options are ignored.
type OnboardingStep struct {
	Question    string       `json:"question,omitempty"`
	ControlType string       `json:"controlType,omitempty"`
	Options     []string     `json:"options,omitempty"`
	IsComplete  bool         `json:"isComplete"`
	FinalConfig *StoryConfig `json:"finalConfig,omitempty"`
}
