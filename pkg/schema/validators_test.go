package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/pkg/state"
)

func TestValidate_UnknownSchema(t *testing.T) {
	result := Validate([]byte(`{}`), ID("mystery"))
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unknown schema id")
}

func TestValidate_MalformedJSON(t *testing.T) {
	result := Validate([]byte(`{not json`), GridUpdate)
	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to parse payload")
}

func TestValidateGridUpdate(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		ok        bool
		errSubstr string
		warns     int
	}{
		{
			name:    "valid delta",
			payload: `{"shouldUpdate":true,"changes":{"elements":[{"symbol":"D","name":"Door","position":{"x":2,"y":3}}]}}`,
			ok:      true,
		},
		{
			name:    "shouldUpdate false ignores changes",
			payload: `{"shouldUpdate":false,"changes":{"elements":[{"symbol":"!","name":"","position":{"x":99,"y":99}}]}}`,
			ok:      true,
			warns:   1,
		},
		{
			name:    "shouldUpdate true with empty changes warns",
			payload: `{"shouldUpdate":true}`,
			ok:      true,
			warns:   1,
		},
		{
			name:      "lowercase symbol",
			payload:   `{"shouldUpdate":true,"changes":{"elements":[{"symbol":"d","name":"Door","position":{"x":2,"y":3}}]}}`,
			errSubstr: "single uppercase letter",
		},
		{
			name:      "missing element name",
			payload:   `{"shouldUpdate":true,"changes":{"elements":[{"symbol":"D","position":{"x":2,"y":3}}]}}`,
			errSubstr: "name is required",
		},
		{
			name:      "position out of range",
			payload:   `{"shouldUpdate":true,"changes":{"elements":[{"symbol":"D","name":"Door","position":{"x":10,"y":3}}]}}`,
			errSubstr: "out of range",
		},
		{
			name:      "character without id",
			payload:   `{"shouldUpdate":true,"changes":{"characterPositions":[{"characterName":"Hero","position":{"x":1,"y":1}}]}}`,
			errSubstr: "characterId is required",
		},
		{
			name:      "invalid removed symbol",
			payload:   `{"shouldUpdate":true,"changes":{"removedElements":["xx"]}}`,
			errSubstr: "single uppercase letter",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate([]byte(tc.payload), GridUpdate)
			if tc.errSubstr != "" {
				require.False(t, result.OK)
				assert.Contains(t, result.Errors[0], tc.errSubstr)
				assert.Nil(t, result.Value)
				return
			}
			require.True(t, result.OK, "errors: %v", result.Errors)
			assert.Len(t, result.Warnings, tc.warns)
			resp, isTyped := result.Value.(*state.GridUpdateResponse)
			require.True(t, isTyped)
			if !resp.ShouldUpdate {
				assert.Nil(t, resp.Changes)
			}
		})
	}
}

func TestValidateHeavyContext(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		ok        bool
		errSubstr string
	}{
		{
			name:    "valid delta",
			payload: `{"shouldUpdate":true,"changes":{"mainMission":{"action":"set","value":"find the heir"},"activeProblems":[{"action":"add","value":"city gates sealed"}]}}`,
			ok:      true,
		},
		{
			name:    "clear without value",
			payload: `{"shouldUpdate":true,"changes":{"currentMission":{"action":"clear"}}}`,
			ok:      true,
		},
		{
			name:      "unknown field action",
			payload:   `{"shouldUpdate":true,"changes":{"mainMission":{"action":"replace","value":"x"}}}`,
			errSubstr: "unknown action",
		},
		{
			name:      "list change without value",
			payload:   `{"shouldUpdate":true,"changes":{"importantNotes":[{"action":"add"}]}}`,
			errSubstr: "value is required",
		},
		{
			name:      "unknown list action",
			payload:   `{"shouldUpdate":true,"changes":{"currentConcerns":[{"action":"push","value":"x"}]}}`,
			errSubstr: "unknown action",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate([]byte(tc.payload), HeavyContext)
			if tc.errSubstr != "" {
				require.False(t, result.OK)
				assert.Contains(t, result.Errors[0], tc.errSubstr)
				return
			}
			require.True(t, result.OK, "errors: %v", result.Errors)
			_, isTyped := result.Value.(*state.HeavyContextResponse)
			assert.True(t, isTyped)
		})
	}
}

func TestValidateHeavyContext_SetEmptyValueWarns(t *testing.T) {
	result := Validate([]byte(`{"shouldUpdate":true,"changes":{"mainMission":{"action":"set","value":""}}}`), HeavyContext)
	require.True(t, result.OK)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "prefer action=clear")
}

func TestValidateNarrativeThreads(t *testing.T) {
	valid := `[{"action":"plant","id":"locket","type":"chekhovs_gun","description":"a silver locket"},{"action":"resolve","id":"old-debt"}]`
	result := Validate([]byte(valid), NarrativeThreads)
	require.True(t, result.OK, "errors: %v", result.Errors)
	changes, isTyped := result.Value.([]state.NarrativeThreadChange)
	require.True(t, isTyped)
	assert.Len(t, changes, 2)

	result = Validate([]byte(`[{"action":"plant","id":"x","type":"rumor","description":"d"}]`), NarrativeThreads)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "thread type")

	result = Validate([]byte(`[{"action":"plant","id":"x","type":"callback"}]`), NarrativeThreads)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "description")

	result = Validate([]byte(`[{"action":"resolve"}]`), NarrativeThreads)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "id is required")
}

func TestValidatePacing(t *testing.T) {
	result := Validate([]byte(`{"currentLevel":"building","trend":"rising"}`), PacingAnalysis)
	require.True(t, result.OK, "errors: %v", result.Errors)
	analysis, isTyped := result.Value.(*state.PacingAnalysis)
	require.True(t, isTyped)
	assert.Equal(t, state.PacingBuilding, analysis.CurrentLevel)

	result = Validate([]byte(`{"currentLevel":"frantic"}`), PacingAnalysis)
	assert.False(t, result.OK)

	result = Validate([]byte(`{"currentLevel":"calm","trend":"sideways"}`), PacingAnalysis)
	assert.False(t, result.OK)
}

func TestValidateActionOptions(t *testing.T) {
	option := `{"text":"Sneak past the guard","goodChance":30,"badChance":20}`
	five := option + "," + option + "," + option + "," + option + "," + option

	result := Validate([]byte(`{"options":[`+five+`]}`), ActionOptions)
	require.True(t, result.OK, "errors: %v", result.Errors)
	resp, isTyped := result.Value.(*ActionOptionsResponse)
	require.True(t, isTyped)
	assert.Len(t, resp.Options, ActionOptionLen)

	result = Validate([]byte(`{"options":[`+option+`]}`), ActionOptions)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "exactly 5")

	over := `{"text":"x","goodChance":60,"badChance":10}`
	result = Validate([]byte(`{"options":[`+over+","+option+","+option+","+option+","+option+`]}`), ActionOptions)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "out of range")
}

func TestValidateCustomAction(t *testing.T) {
	result := Validate([]byte(`{"goodChance":40,"badChance":35,"reasoning":"risky but plausible"}`), CustomAction)
	require.True(t, result.OK, "errors: %v", result.Errors)
	analysis, isTyped := result.Value.(*CustomActionAnalysis)
	require.True(t, isTyped)
	assert.Equal(t, 40, analysis.GoodChance)

	result = Validate([]byte(`{"goodChance":40,"badChance":35}`), CustomAction)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "reasoning is required")

	result = Validate([]byte(`{"goodChance":-1,"badChance":51,"reasoning":"r"}`), CustomAction)
	require.False(t, result.OK)
	assert.Len(t, result.Errors, 2)
}

// The ceiling is advisory. A pair that exceeds it but stays within the
// per-chance bounds passes with a warning.
func TestValidateCustomAction_SumCeilingWarns(t *testing.T) {
	result := Validate([]byte(`{"goodChance":45,"badChance":45,"reasoning":"coin flip"}`), CustomAction)
	require.True(t, result.OK)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ceiling")
}

func TestValidateTextClassification(t *testing.T) {
	payload := `{"segments":[{"type":"speech","content":"Stand aside."},{"type":"action","content":"draws the sword"}]}`
	result := Validate([]byte(payload), TextClassification)
	require.True(t, result.OK, "errors: %v", result.Errors)
	resp, isTyped := result.Value.(*TextClassificationResponse)
	require.True(t, isTyped)
	assert.Len(t, resp.Segments, 2)

	result = Validate([]byte(`{"segments":[]}`), TextClassification)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "at least one segment")

	result = Validate([]byte(`{"segments":[{"type":"gesture","content":"waves"}]}`), TextClassification)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "unknown type")
}

func TestValidateOnboarding(t *testing.T) {
	result := Validate([]byte(`{"question":"What genre?","controlType":"select","options":["fantasy","noir"],"isComplete":false}`), Onboarding)
	require.True(t, result.OK, "errors: %v", result.Errors)
	step, isTyped := result.Value.(*OnboardingStep)
	require.True(t, isTyped)
	assert.False(t, step.IsComplete)

	result = Validate([]byte(`{"question":"Pick one","controlType":"select","options":["only"],"isComplete":false}`), Onboarding)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "at least 2 options")

	result = Validate([]byte(`{"isComplete":true}`), Onboarding)
	require.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "requires finalConfig")

	result = Validate([]byte(`{"isComplete":true,"finalConfig":{"genre":"fantasy","playerName":"Mira"}}`), Onboarding)
	require.True(t, result.OK, "errors: %v", result.Errors)
	step = result.Value.(*OnboardingStep)
	require.NotNil(t, step.FinalConfig)
	assert.Equal(t, "Mira", step.FinalConfig.PlayerName)
}
