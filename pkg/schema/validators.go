package schema

import (
	"fmt"

	"github.com/driftworld/turncore/pkg/state"
)

func validateGridUpdate(payload []byte) Result {
	var r Result
	var resp state.GridUpdateResponse
	if !decode(payload, &resp, &r) {
		return r.finish(nil)
	}

	// shouldUpdate=false short-circuits: changes are ignored even when
	// the model emits them anyway.
	if !resp.ShouldUpdate {
		if !resp.Changes.IsEmpty() {
			r.addWarning("changes present despite shouldUpdate=false; ignored")
		}
		resp.Changes = nil
		return r.finish(&resp)
	}

	if resp.Changes.IsEmpty() {
		r.addWarning("shouldUpdate=true with empty changes")
		return r.finish(&resp)
	}

	for i, e := range resp.Changes.Elements {
		if !state.ValidSymbol(e.Symbol) {
			r.addError("elements[%d]: symbol %q must be a single uppercase letter", i, e.Symbol)
		}
		if e.Name == "" {
			r.addError("elements[%d]: name is required", i)
		}
		validatePosition(&r, e.Position, "elements", i)
	}
	for i, sym := range resp.Changes.RemovedElements {
		if !state.ValidSymbol(sym) {
			r.addError("removedElements[%d]: symbol %q must be a single uppercase letter", i, sym)
		}
	}
	for i, cp := range resp.Changes.CharacterPositions {
		if cp.CharacterID == "" {
			r.addError("characterPositions[%d]: characterId is required", i)
		}
		validatePosition(&r, cp.Position, "characterPositions", i)
	}

	return r.finish(&resp)
}

func validatePosition(r *Result, p state.Position, field string, i int) {
	if !p.InBounds() {
		r.addError("%s[%d]: position (%d,%d) out of range [0,%d]", field, i, p.X, p.Y, state.GridSize-1)
	}
}

func validateHeavyContext(payload []byte) Result {
	var r Result
	var resp state.HeavyContextResponse
	if !decode(payload, &resp, &r) {
		return r.finish(nil)
	}

	if !resp.ShouldUpdate {
		if !resp.Changes.IsEmpty() {
			r.addWarning("changes present despite shouldUpdate=false; ignored")
		}
		resp.Changes = nil
		return r.finish(&resp)
	}
	if resp.Changes.IsEmpty() {
		r.addWarning("shouldUpdate=true with empty changes")
		return r.finish(&resp)
	}

	validateFieldChange(&r, resp.Changes.MainMission, "mainMission")
	validateFieldChange(&r, resp.Changes.CurrentMission, "currentMission")
	validateListChanges(&r, resp.Changes.ActiveProblems, "activeProblems")
	validateListChanges(&r, resp.Changes.CurrentConcerns, "currentConcerns")
	validateListChanges(&r, resp.Changes.ImportantNotes, "importantNotes")

	return r.finish(&resp)
}

func validateFieldChange(r *Result, fc *state.FieldChange, field string) {
	if fc == nil {
		return
	}
	switch fc.Action {
	case state.FieldActionSet:
		if fc.Value == "" {
			r.addWarning("%s: set with empty value; prefer action=clear", field)
		}
	case state.FieldActionClear:
	default:
		r.addError("%s: unknown action %q (want set or clear)", field, fc.Action)
	}
}

func validateListChanges(r *Result, changes []state.ListChange, field string) {
	for i, ch := range changes {
		switch ch.Action {
		case state.ListActionAdd, state.ListActionRemove:
			if ch.Value == "" {
				r.addError("%s[%d]: value is required", field, i)
			}
		default:
			r.addError("%s[%d]: unknown action %q (want add or remove)", field, i, ch.Action)
		}
	}
}

func validateNarrativeThreads(payload []byte) Result {
	var r Result
	var changes []state.NarrativeThreadChange
	if !decode(payload, &changes, &r) {
		return r.finish(nil)
	}

	for i, ch := range changes {
		if ch.ID == "" {
			r.addError("[%d]: id is required", i)
		}
		switch ch.Action {
		case state.ThreadActionPlant:
			if !state.ValidThreadType(ch.Type) {
				r.addError("[%d]: plant requires a thread type (foreshadowing, callback, chekhovs_gun), got %q", i, ch.Type)
			}
			if ch.Description == "" {
				r.addError("[%d]: plant requires a description", i)
			}
		case state.ThreadActionReference, state.ThreadActionResolve, state.ThreadActionRemove:
		default:
			r.addError("[%d]: unknown action %q", i, ch.Action)
		}
	}

	return r.finish(changes)
}

func validatePacing(payload []byte) Result {
	var r Result
	var analysis state.PacingAnalysis
	if !decode(payload, &analysis, &r) {
		return r.finish(nil)
	}

	if !state.ValidPacingLevel(analysis.CurrentLevel) {
		r.addError("currentLevel %q is not a recognized pacing level", analysis.CurrentLevel)
	}
	if analysis.Trend != "" && !state.ValidPacingTrend(analysis.Trend) {
		r.addError("trend %q is not a recognized pacing trend", analysis.Trend)
	}

	return r.finish(&analysis)
}

func validateActionOptions(payload []byte) Result {
	var r Result
	var resp ActionOptionsResponse
	if !decode(payload, &resp, &r) {
		return r.finish(nil)
	}

	if len(resp.Options) != ActionOptionLen {
		r.addError("expected exactly %d action options, got %d", ActionOptionLen, len(resp.Options))
	}
	for i, opt := range resp.Options {
		if opt.Text == "" {
			r.addError("options[%d]: text is required", i)
		}
		validateChances(&r, opt.GoodChance, opt.BadChance, "options", i)
	}

	return r.finish(&resp)
}

func validateCustomAction(payload []byte) Result {
	var r Result
	var analysis CustomActionAnalysis
	if !decode(payload, &analysis, &r) {
		return r.finish(nil)
	}

	validateChances(&r, analysis.GoodChance, analysis.BadChance, "", -1)
	if analysis.Reasoning == "" {
		r.addError("reasoning is required")
	}

	return r.finish(&analysis)
}

// validateChances checks the [0,MaxChance] bound on each chance and
// warns when the pair exceeds the advisory ceiling. The ceiling is a
// soft constraint: the model is the source of these values and cannot
// be relied on to respect it exactly.
func validateChances(r *Result, good, bad int, field string, i int) {
	prefix := ""
	if field != "" {
		prefix = sprintfIndex(field, i)
	}
	if good < 0 || good > MaxChance {
		r.addError("%sgoodChance %d out of range [0,%d]", prefix, good, MaxChance)
	}
	if bad < 0 || bad > MaxChance {
		r.addError("%sbadChance %d out of range [0,%d]", prefix, bad, MaxChance)
	}
	if good >= 0 && bad >= 0 && good+bad > ChanceSumCeiling {
		r.addWarning("%sgoodChance+badChance=%d exceeds ceiling %d; no room for neutral outcomes", prefix, good+bad, ChanceSumCeiling)
	}
}

func sprintfIndex(field string, i int) string {
	return fmt.Sprintf("%s[%d]: ", field, i)
}

func validateTextClassification(payload []byte) Result {
	var r Result
	var resp TextClassificationResponse
	if !decode(payload, &resp, &r) {
		return r.finish(nil)
	}

	if len(resp.Segments) == 0 {
		r.addError("at least one segment is required")
	}
	for i, seg := range resp.Segments {
		switch seg.Type {
		case SegmentTypeAction, SegmentTypeSpeech:
		default:
			r.addError("segments[%d]: unknown type %q (want action or speech)", i, seg.Type)
		}
		if seg.Content == "" {
			r.addError("segments[%d]: content is required", i)
		}
	}

	return r.finish(&resp)
}

func validateOnboarding(payload []byte) Result {
	var r Result
	var step OnboardingStep
	if !decode(payload, &step, &r) {
		return r.finish(nil)
	}

	if step.IsComplete {
		if step.FinalConfig == nil {
			r.addError("isComplete=true requires finalConfig")
		}
		return r.finish(&step)
	}

	if step.Question == "" {
		r.addError("question is required until isComplete")
	}
	switch step.ControlType {
	case ControlTypeText, ControlTypeToggle:
	case ControlTypeSelect:
		if len(step.Options) < 2 {
			r.addError("controlType=select requires at least 2 options, got %d", len(step.Options))
		}
	default:
		r.addError("unknown controlType %q", step.ControlType)
	}

	return r.finish(&step)
}
