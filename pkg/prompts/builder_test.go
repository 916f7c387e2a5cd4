package prompts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

func stateWithGrid() *state.GameState {
	gs := state.NewGameState()
	gs.PlayerCharacterID = "player"
	gs.GridSnapshots = []state.GridSnapshot{{
		Turn: 1,
		CharacterPositions: []state.CharacterPosition{
			{CharacterID: "player", CharacterName: "hero", Position: state.Position{X: 5, Y: 5}, IsPlayer: true},
			{CharacterID: "goblin", CharacterName: "goblin scout", Position: state.Position{X: 6, Y: 5}},
		},
		Elements: []state.GridElement{
			{Symbol: "W", Name: "old well", Position: state.Position{X: 5, Y: 8}},
			{Symbol: "T", Name: "watchtower", Position: state.Position{X: 0, Y: 0}},
		},
	}}
	return gs
}

func TestBuilder_RequiresGameState(t *testing.T) {
	_, err := New().WithUserMessage("hello", chat.ChatRoleUser).Build()
	assert.Error(t, err)
}

func TestBuilder_NarrationTurnShape(t *testing.T) {
	gs := stateWithGrid()
	gs.Messages = []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "earlier action", PageNumber: 1},
		{Role: chat.ChatRoleAgent, Content: "earlier narration", PageNumber: 2},
	}

	messages, err := New().
		WithGameState(gs).
		WithUserMessage("I approach the well", chat.ChatRoleUser).
		Build()
	require.NoError(t, err)

	// system prompt, 2 history, user message, closing system reminder
	require.Len(t, messages, 5)
	assert.Equal(t, chat.ChatRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Narrative Memory:")
	assert.Contains(t, messages[0].Content, "Spatial Map:")
	assert.Equal(t, "earlier action", messages[1].Content)
	assert.Equal(t, "I approach the well", messages[3].Content)
	assert.Equal(t, chat.ChatRoleSystem, messages[4].Role)
	assert.Equal(t, UserPostPrompt, messages[4].Content)
}

func TestBuilder_StructuredTurnOmitsFinalPrompt(t *testing.T) {
	messages, err := New().
		WithGameState(stateWithGrid()).
		WithSchema(schema.GridUpdate).
		WithUserMessage("the goblin flees north", chat.ChatRoleUser).
		Build()
	require.NoError(t, err)

	last := messages[len(messages)-1]
	assert.Equal(t, chat.ChatRoleUser, last.Role)
	assert.NotEqual(t, UserPostPrompt, last.Content)
}

func TestBuilder_GridExcludedForMemoryTurns(t *testing.T) {
	gs := stateWithGrid()

	withGrid := []schema.ID{"", schema.GridUpdate, schema.ActionOptions, schema.CustomAction}
	withoutGrid := []schema.ID{
		schema.HeavyContext, schema.NarrativeThreads,
		schema.PacingAnalysis, schema.TextClassification, schema.Onboarding,
	}

	for _, id := range withGrid {
		messages, err := New().WithGameState(gs).WithSchema(id).Build()
		require.NoError(t, err)
		assert.Contains(t, messages[0].Content, "Spatial Map:", "schema %q", id)
	}
	for _, id := range withoutGrid {
		messages, err := New().WithGameState(gs).WithSchema(id).Build()
		require.NoError(t, err)
		assert.NotContains(t, messages[0].Content, "Spatial Map:", "schema %q", id)
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	gs := stateWithGrid()
	gs.HeavyContext.MainMission = "recover the ledger"
	gs.Messages = []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "a", PageNumber: 1},
	}

	build := func() []chat.ChatMessage {
		messages, err := New().
			WithGameState(gs).
			WithSchema(schema.CustomAction).
			WithUserMessage("pick the lock", chat.ChatRoleUser).
			Build()
		require.NoError(t, err)
		return messages
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
}

func TestBuilder_HistoryWindow(t *testing.T) {
	gs := stateWithGrid()
	for i := 1; i <= 10; i++ {
		gs.Messages = append(gs.Messages, chat.ChatMessage{
			Role:       chat.ChatRoleUser,
			Content:    fmt.Sprintf("message %d", i),
			PageNumber: i,
		})
	}

	messages, err := New().
		WithGameState(gs).
		WithHistoryLimit(3).
		WithUserMessage("now", chat.ChatRoleUser).
		Build()
	require.NoError(t, err)

	// system + 3 history + user + final
	require.Len(t, messages, 6)
	assert.Equal(t, "message 8", messages[1].Content)
	assert.Equal(t, "message 10", messages[3].Content)
}

func TestSelectRecentMessages(t *testing.T) {
	var messages []chat.ChatMessage
	for i := 1; i <= 5; i++ {
		messages = append(messages, chat.ChatMessage{Content: fmt.Sprintf("m%d", i)})
	}

	assert.Empty(t, SelectRecentMessages(nil, 3))

	out := SelectRecentMessages(messages, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "m4", out[0].Content)

	out = SelectRecentMessages(messages, 10)
	assert.Len(t, out, 5)

	// Non-positive limit falls back to the default window.
	out = SelectRecentMessages(messages, 0)
	assert.Len(t, out, 5)

	// Returned slice is a copy, not a view.
	out[0].Content = "mutated"
	assert.Equal(t, "m1", messages[0].Content)
}

func TestSummarizeHeavyContext(t *testing.T) {
	out := SummarizeHeavyContext(state.HeavyContext{})
	assert.Contains(t, out, "Main mission: None defined")
	assert.Contains(t, out, "Important notes: None defined")

	out = SummarizeHeavyContext(state.HeavyContext{
		MainMission:    "escape the citadel",
		ActiveProblems: []string{"guards alerted", "rope too short"},
	})
	assert.Contains(t, out, "Main mission: escape the citadel")
	assert.Contains(t, out, "guards alerted; rope too short")
}

func TestProjectGridContext_ProximityBands(t *testing.T) {
	snap := &state.GridSnapshot{
		CharacterPositions: []state.CharacterPosition{
			{CharacterID: "player", CharacterName: "hero", Position: state.Position{X: 5, Y: 5}, IsPlayer: true},
			{CharacterID: "close", CharacterName: "ally", Position: state.Position{X: 5, Y: 6}},
			{CharacterID: "mid", CharacterName: "merchant", Position: state.Position{X: 7, Y: 6}},
			{CharacterID: "distant", CharacterName: "rider", Position: state.Position{X: 0, Y: 0}},
		},
	}

	gc := ProjectGridContext(snap, state.Position{X: 5, Y: 5})
	require.Len(t, gc.Characters, 4)

	byID := map[string]ProjectedCharacter{}
	for _, c := range gc.Characters {
		byID[c.CharacterID] = c
	}

	assert.Equal(t, ProximityAdjacent, byID["player"].Proximity) // distance 0
	assert.Equal(t, ProximityAdjacent, byID["close"].Proximity)  // distance 1
	assert.Equal(t, ProximityNearby, byID["mid"].Proximity)      // distance 3
	assert.Equal(t, ProximityFar, byID["distant"].Proximity)     // distance 10
	assert.Equal(t, 10, byID["distant"].Distance)
}

func TestGridContext_Render(t *testing.T) {
	gc := ProjectGridContext(nil, state.Position{X: 2, Y: 2})
	assert.Contains(t, gc.Render(), "The map is empty.")

	snap := &state.GridSnapshot{
		Elements: []state.GridElement{
			{Symbol: "W", Name: "old well", Position: state.Position{X: 2, Y: 3}},
		},
	}
	out := ProjectGridContext(snap, state.Position{X: 2, Y: 2}).Render()
	assert.Contains(t, out, "Player position: (2,2)")
	assert.Contains(t, out, "[W] Old Well at (2,3), adjacent (distance 1)")
}
