package prompts

import (
	"fmt"
	"strings"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

// Builder assembles the bounded context payload sent to the model for
// one turn, using a fluent interface. The same state and parameters
// always produce the same messages; nothing here consults a clock or
// randomness, which is what makes repeated custom-action scoring
// deterministic.
type Builder struct {
	gs           *state.GameState
	schemaID     schema.ID // empty means a narration turn
	userMessage  string
	userRole     string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: DefaultHistoryLimit,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithGameState sets the session state to budget from.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithSchema marks this as a structured backend turn for the given
// schema. Leave unset for narration turns.
func (b *Builder) WithSchema(id schema.ID) *Builder {
	b.schemaID = id
	return b
}

// WithUserMessage sets the user's message and role.
func (b *Builder) WithUserMessage(message string, role string) *Builder {
	b.userMessage = message
	b.userRole = role
	return b
}

// WithHistoryLimit sets the transcript recency window.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for the model call.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("game state is required")
	}

	b.messages = make([]chat.ChatMessage, 0)
	b.addSystemPrompt()
	b.addHistory()
	b.addUserMessage()
	b.addFinalPrompt()

	return b.messages, nil
}

// addSystemPrompt builds the system prompt: turn instructions plus the
// budgeted state slices (narrative memory, spatial projection).
func (b *Builder) addSystemPrompt() {
	var sb strings.Builder
	sb.WriteString(instructionFor(b.schemaID))

	sb.WriteString("\n\nNarrative Memory:\n")
	sb.WriteString(SummarizeHeavyContext(b.gs.HeavyContext))

	if b.includeGrid() {
		if snap := b.gs.LatestGridSnapshot(); snap != nil {
			sb.WriteString("\n\nSpatial Map:\n")
			sb.WriteString(ProjectGridContext(snap, b.playerPosition(snap)).Render())
		}
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
}

// includeGrid reports whether this turn type needs the spatial
// projection. Memory- and setup-oriented turns do not pay for it.
func (b *Builder) includeGrid() bool {
	switch b.schemaID {
	case schema.HeavyContext, schema.NarrativeThreads, schema.PacingAnalysis,
		schema.TextClassification, schema.Onboarding:
		return false
	}
	return true
}

func (b *Builder) playerPosition(snap *state.GridSnapshot) state.Position {
	for _, cp := range snap.CharacterPositions {
		if cp.IsPlayer || cp.CharacterID == b.gs.PlayerCharacterID {
			return cp.Position
		}
	}
	return state.Position{}
}

// addHistory adds the windowed transcript.
func (b *Builder) addHistory() {
	recent := SelectRecentMessages(b.gs.Messages, b.historyLimit)
	for _, m := range recent {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
}

// addUserMessage adds the current user message.
func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}
	role := b.userRole
	if role == "" {
		role = chat.ChatRoleUser
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    role,
		Content: b.userMessage,
	})
}

// addFinalPrompt closes narration turns with the standard reminder.
// Structured turns end on the user message; their instructions already
// demand JSON-only output.
func (b *Builder) addFinalPrompt() {
	if b.schemaID != "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: UserPostPrompt,
	})
}

func instructionFor(id schema.ID) string {
	switch id {
	case schema.GridUpdate:
		return GridUpdatePrompt
	case schema.HeavyContext:
		return HeavyContextPrompt
	case schema.NarrativeThreads:
		return NarrativeThreadsPrompt
	case schema.PacingAnalysis:
		return PacingPrompt
	case schema.ActionOptions:
		return ActionOptionsPrompt
	case schema.CustomAction:
		return CustomActionPrompt
	case schema.TextClassification:
		return TextClassificationPrompt
	case schema.Onboarding:
		return OnboardingPrompt
	default:
		return BaseSystemPrompt
	}
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(gs *state.GameState, id schema.ID, message string, role string, historyLimit int) ([]chat.ChatMessage, error) {
	return New().
		WithGameState(gs).
		WithSchema(id).
		WithUserMessage(message, role).
		WithHistoryLimit(historyLimit).
		Build()
}
