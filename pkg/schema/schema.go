// Package schema is the gatekeeper between untrusted model output and
// the state reducer. Every model reply is validated here exactly once;
// past this boundary the rest of the system works only with the typed
// representation.
package schema

import (
	"encoding/json"
	"fmt"
)

// ID names a turn-type schema.
type ID string

const (
	GridUpdate         ID = "grid_update"
	HeavyContext       ID = "heavy_context"
	NarrativeThreads   ID = "narrative_threads"
	PacingAnalysis     ID = "pacing_analysis"
	ActionOptions      ID = "action_options"
	CustomAction       ID = "custom_action"
	TextClassification ID = "text_classification"
	Onboarding         ID = "onboarding"
)

// Validation limits for model-emitted numeric fields.
const (
	MaxChance        = 50 // goodChance/badChance upper bound
	ChanceSumCeiling = 80 // advisory: leaves room for a neutral outcome band
	ActionOptionLen  = 5  // exact number of action options per response
)

// Result is the outcome of validating one payload. When OK is true,
// Value holds the typed representation for the schema (e.g.
// *state.GridUpdateResponse for GridUpdate). Warnings are advisory
// diagnostics that do not block the payload.
type Result struct {
	OK       bool
	Value    any
	Errors   []string
	Warnings []string
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) finish(value any) Result {
	r.OK = len(r.Errors) == 0
	if r.OK {
		r.Value = value
	}
	return *r
}

// Validate checks a raw model payload against the named schema. It is a
// pure function of (payload, id): it never mutates state and never
// retries. A payload that fails JSON decoding is reported as a single
// parse error; constraint violations are itemized.
func Validate(payload []byte, id ID) Result {
	switch id {
	case GridUpdate:
		return validateGridUpdate(payload)
	case HeavyContext:
		return validateHeavyContext(payload)
	case NarrativeThreads:
		return validateNarrativeThreads(payload)
	case PacingAnalysis:
		return validatePacing(payload)
	case ActionOptions:
		return validateActionOptions(payload)
	case CustomAction:
		return validateCustomAction(payload)
	case TextClassification:
		return validateTextClassification(payload)
	case Onboarding:
		return validateOnboarding(payload)
	default:
		return Result{Errors: []string{fmt.Sprintf("unknown schema id %q", id)}}
	}
}

func decode(payload []byte, v any, r *Result) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		r.addError("failed to parse payload: %v", err)
		return false
	}
	return true
}
