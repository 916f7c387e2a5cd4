package schema

import "fmt"

// Definition returns the JSON Schema sent to the model as the strict
// response format for a turn type. Keeping these next to the validators
// means the shape the model is asked for and the shape we accept are
// maintained together.
func Definition(id ID) (map[string]any, error) {
	switch id {
	case GridUpdate:
		return gridUpdateSchema(), nil
	case HeavyContext:
		return heavyContextSchema(), nil
	case NarrativeThreads:
		return narrativeThreadsSchema(), nil
	case PacingAnalysis:
		return pacingSchema(), nil
	case ActionOptions:
		return actionOptionsSchema(), nil
	case CustomAction:
		return customActionSchema(), nil
	case TextClassification:
		return textClassificationSchema(), nil
	case Onboarding:
		return onboardingSchema(), nil
	default:
		return nil, fmt.Errorf("unknown schema id %q", id)
	}
}

func positionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer", "minimum": 0, "maximum": 9},
			"y": map[string]any{"type": "integer", "minimum": 0, "maximum": 9},
		},
		"required": []string{"x", "y"},
	}
}

func chanceSchema() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": MaxChance}
}

func gridUpdateSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shouldUpdate": map[string]any{"type": "boolean"},
			"changes": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"characterPositions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"characterId":   map[string]any{"type": "string"},
								"characterName": map[string]any{"type": "string"},
								"position":      positionSchema(),
								"isPlayer":      map[string]any{"type": "boolean"},
							},
							"required": []string{"characterId", "position"},
						},
					},
					"elements": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"symbol":      map[string]any{"type": "string", "pattern": "^[A-Z]$"},
								"name":        map[string]any{"type": "string"},
								"description": map[string]any{"type": "string"},
								"position":    positionSchema(),
							},
							"required": []string{"symbol", "name", "position"},
						},
					},
					"removedElements": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string", "pattern": "^[A-Z]$"},
					},
				},
			},
		},
		"required": []string{"shouldUpdate"},
	}
}

func fieldChangeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"set", "clear"}},
			"value":  map[string]any{"type": "string"},
		},
		"required": []string{"action"},
	}
}

func listChangesSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{"type": "string", "enum": []string{"add", "remove"}},
				"value":  map[string]any{"type": "string"},
			},
			"required": []string{"action", "value"},
		},
	}
}

func heavyContextSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shouldUpdate": map[string]any{"type": "boolean"},
			"changes": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mainMission":     fieldChangeSchema(),
					"currentMission":  fieldChangeSchema(),
					"activeProblems":  listChangesSchema(),
					"currentConcerns": listChangesSchema(),
					"importantNotes":  listChangesSchema(),
				},
			},
		},
		"required": []string{"shouldUpdate"},
	}
}

func narrativeThreadsSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action":      map[string]any{"type": "string", "enum": []string{"plant", "reference", "resolve", "remove"}},
				"id":          map[string]any{"type": "string"},
				"type":        map[string]any{"type": "string", "enum": []string{"foreshadowing", "callback", "chekhovs_gun"}},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"action", "id"},
		},
	}
}

func pacingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"currentLevel": map[string]any{"type": "string", "enum": []string{"calm", "building", "high_tension", "falling_action"}},
			"trend":        map[string]any{"type": "string", "enum": []string{"rising", "steady", "falling"}},
			"reasoning":    map[string]any{"type": "string"},
		},
		"required": []string{"currentLevel"},
	}
}

func actionOptionsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{
				"type":     "array",
				"minItems": ActionOptionLen,
				"maxItems": ActionOptionLen,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":       map[string]any{"type": "string"},
						"goodChance": chanceSchema(),
						"badChance":  chanceSchema(),
						"goodHint":   map[string]any{"type": "string"},
						"badHint":    map[string]any{"type": "string"},
					},
					"required": []string{"text", "goodChance", "badChance"},
				},
			},
		},
		"required": []string{"options"},
	}
}

func customActionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"goodChance": chanceSchema(),
			"badChance":  chanceSchema(),
			"goodHint":   map[string]any{"type": "string"},
			"badHint":    map[string]any{"type": "string"},
			"reasoning":  map[string]any{"type": "string"},
		},
		"required": []string{"goodChance", "badChance", "reasoning"},
	}
}

func textClassificationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"segments": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":    map[string]any{"type": "string", "enum": []string{"action", "speech"}},
						"content": map[string]any{"type": "string"},
					},
					"required": []string{"type", "content"},
				},
			},
		},
		"required": []string{"segments"},
	}
}

func onboardingSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":    map[string]any{"type": "string"},
			"controlType": map[string]any{"type": "string", "enum": []string{"text", "select", "toggle"}},
			"options":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"isComplete":  map[string]any{"type": "boolean"},
			"finalConfig": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"genre":       map[string]any{"type": "string"},
					"setting":     map[string]any{"type": "string"},
					"playerName":  map[string]any{"type": "string"},
					"background":  map[string]any{"type": "string"},
					"personality": map[string]any{"type": "string"},
					"tone":        map[string]any{"type": "string"},
				},
			},
		},
		"required": []string{"isComplete"},
	}
}
