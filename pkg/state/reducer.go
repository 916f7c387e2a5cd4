package state

import (
	"fmt"
	"log/slog"
	"slices"
)

// TurnReducer applies validated model deltas to a game state snapshot.
// It works on a private deep copy, so the input state is never mutated:
// call the Apply methods for each delta in the turn, then State() for
// the resulting snapshot.
//
// The reducer assumes its input already passed schema validation. If an
// out-of-range value reaches it anyway, it clamps or skips the
// offending sub-change and logs, so a single bad field never discards
// an otherwise-good turn and never crashes the session.
type TurnReducer struct {
	gs      *GameState
	logger  *slog.Logger
	listCap int
}

// NewTurnReducer creates a reducer over a deep copy of gs.
func NewTurnReducer(gs *GameState) (*TurnReducer, error) {
	cp, err := gs.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy game state: %w", err)
	}
	return &TurnReducer{
		gs:      cp,
		listCap: MaxListItems,
	}, nil
}

// WithLogger sets the logger for skipped/clamped sub-changes.
// Returns the TurnReducer for method chaining.
func (r *TurnReducer) WithLogger(logger *slog.Logger) *TurnReducer {
	r.logger = logger
	return r
}

// WithListCap overrides the heavy-context list cap.
// Returns the TurnReducer for method chaining.
func (r *TurnReducer) WithListCap(cap int) *TurnReducer {
	if cap > 0 {
		r.listCap = cap
	}
	return r
}

// State returns the reduced game state.
func (r *TurnReducer) State() *GameState {
	return r.gs
}

// AdvanceTurn increments the turn counter. Called once per completed
// player-action cycle, after all deltas for the turn are applied.
func (r *TurnReducer) AdvanceTurn() {
	r.gs.TurnCount++
}

func (r *TurnReducer) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

// ApplyHeavyContext applies a heavy-context delta. Sections not listed
// in the delta are left untouched. List sections are truncated to the
// configured cap, dropping oldest entries first.
func (r *TurnReducer) ApplyHeavyContext(resp *HeavyContextResponse) {
	if resp == nil || !resp.ShouldUpdate || resp.Changes.IsEmpty() {
		return
	}
	changes := resp.Changes
	hc := &r.gs.HeavyContext

	r.applyField(&hc.MainMission, changes.MainMission, "mainMission")
	r.applyField(&hc.CurrentMission, changes.CurrentMission, "currentMission")
	hc.ActiveProblems = r.applyListChanges(hc.ActiveProblems, changes.ActiveProblems, "activeProblems")
	hc.CurrentConcerns = r.applyListChanges(hc.CurrentConcerns, changes.CurrentConcerns, "currentConcerns")
	hc.ImportantNotes = r.applyListChanges(hc.ImportantNotes, changes.ImportantNotes, "importantNotes")
}

func (r *TurnReducer) applyField(slot *string, fc *FieldChange, name string) {
	if fc == nil {
		return
	}
	switch fc.Action {
	case FieldActionSet:
		*slot = fc.Value
	case FieldActionClear:
		*slot = ""
	default:
		r.warn("Skipping field change with unknown action", "field", name, "action", fc.Action)
	}
}

// applyListChanges applies adds and removes in order. Adds are
// idempotent; removes of absent values are no-ops. The result is
// truncated to the list cap, oldest entries first.
func (r *TurnReducer) applyListChanges(list []string, changes []ListChange, name string) []string {
	if len(changes) == 0 {
		return list
	}
	for _, ch := range changes {
		switch ch.Action {
		case ListActionAdd:
			if !slices.Contains(list, ch.Value) {
				list = append(list, ch.Value)
			}
		case ListActionRemove:
			if i := slices.Index(list, ch.Value); i >= 0 {
				list = slices.Delete(list, i, i+1)
			}
		default:
			r.warn("Skipping list change with unknown action", "list", name, "action", ch.Action)
		}
	}
	if len(list) > r.listCap {
		r.warn("Truncating list to cap", "list", name, "len", len(list), "cap", r.listCap)
		list = list[len(list)-r.listCap:]
	}
	return list
}

// ApplyGrid applies a spatial-map delta and appends a new cumulative
// snapshot. Removals run before upserts so a symbol can be reused
// within the same delta. Prior snapshots are never mutated.
func (r *TurnReducer) ApplyGrid(resp *GridUpdateResponse) {
	if resp == nil || !resp.ShouldUpdate || resp.Changes.IsEmpty() {
		return
	}
	delta := resp.Changes

	var next GridSnapshot
	if latest := r.gs.LatestGridSnapshot(); latest != nil {
		next = latest.copy()
	}
	next.Turn = r.gs.TurnCount

	// Removals first. A missing symbol means the element is already
	// absent; that is a no-op, not an error.
	for _, sym := range delta.RemovedElements {
		for i, e := range next.Elements {
			if e.Symbol == sym {
				next.Elements = slices.Delete(next.Elements, i, i+1)
				break
			}
		}
	}

	for _, e := range delta.Elements {
		if !ValidSymbol(e.Symbol) {
			r.warn("Skipping grid element with invalid symbol", "symbol", e.Symbol)
			continue
		}
		e.Position = r.clamp(e.Position, "element "+e.Symbol)
		upserted := false
		for i := range next.Elements {
			if next.Elements[i].Symbol == e.Symbol {
				next.Elements[i] = e
				upserted = true
				break
			}
		}
		if !upserted {
			next.Elements = append(next.Elements, e)
		}
	}

	// Character positions are upserted by ID; a character not present
	// in the snapshot is a new arrival, not an error.
	for _, cp := range delta.CharacterPositions {
		if cp.CharacterID == "" {
			r.warn("Skipping character position with empty characterId")
			continue
		}
		cp.Position = r.clamp(cp.Position, "character "+cp.CharacterID)
		upserted := false
		for i := range next.CharacterPositions {
			if next.CharacterPositions[i].CharacterID == cp.CharacterID {
				next.CharacterPositions[i] = cp
				upserted = true
				break
			}
		}
		if !upserted {
			next.CharacterPositions = append(next.CharacterPositions, cp)
		}
	}

	r.gs.GridSnapshots = append(r.gs.GridSnapshots, next)
}

func (r *TurnReducer) clamp(p Position, subject string) Position {
	if p.InBounds() {
		return p
	}
	clamped := p.Clamp()
	r.warn("Clamping out-of-range grid position",
		"subject", subject,
		"x", p.X, "y", p.Y,
		"clamped_x", clamped.X, "clamped_y", clamped.Y)
	return clamped
}

// ApplyNarrativeThreads applies thread lifecycle transitions in order.
// A transition from an unexpected prior state (resolving an already
// resolved thread, referencing one that was never planted) is a no-op.
func (r *TurnReducer) ApplyNarrativeThreads(changes []NarrativeThreadChange) {
	for _, ch := range changes {
		if ch.ID == "" {
			r.warn("Skipping narrative thread change with empty id", "action", ch.Action)
			continue
		}
		if r.gs.NarrativeThreads == nil {
			r.gs.NarrativeThreads = make(map[string]NarrativeThread)
		}
		thread, exists := r.gs.NarrativeThreads[ch.ID]

		switch ch.Action {
		case ThreadActionPlant:
			if exists {
				continue
			}
			r.gs.NarrativeThreads[ch.ID] = NarrativeThread{
				ID:          ch.ID,
				Type:        ch.Type,
				Description: ch.Description,
				Status:      ThreadStatusPlanted,
				PlantedTurn: r.gs.TurnCount,
			}
		case ThreadActionReference:
			if !exists || thread.Status != ThreadStatusPlanted {
				continue
			}
			thread.Status = ThreadStatusReferenced
			r.gs.NarrativeThreads[ch.ID] = thread
		case ThreadActionResolve:
			if !exists || thread.Status == ThreadStatusResolved {
				continue
			}
			thread.Status = ThreadStatusResolved
			thread.ResolvedTurn = r.gs.TurnCount
			r.gs.NarrativeThreads[ch.ID] = thread
		case ThreadActionRemove:
			delete(r.gs.NarrativeThreads, ch.ID)
		default:
			r.warn("Skipping narrative thread change with unknown action", "id", ch.ID, "action", ch.Action)
		}
	}
}

// ApplyPacing replaces the tension classification. TurnsAtLevel
// increments while the level holds and resets when it changes; climax
// and breather markers are stamped when the level crosses into
// high_tension or calm respectively.
func (r *TurnReducer) ApplyPacing(analysis *PacingAnalysis) {
	if analysis == nil {
		return
	}
	if !ValidPacingLevel(analysis.CurrentLevel) {
		r.warn("Skipping pacing analysis with unknown level", "level", analysis.CurrentLevel)
		return
	}
	trend := analysis.Trend
	if trend != "" && !ValidPacingTrend(trend) {
		r.warn("Dropping unknown pacing trend", "trend", trend)
		trend = ""
	}

	ps := r.gs.PacingState
	if ps == nil {
		ps = &PacingState{}
		r.gs.PacingState = ps
	}

	if ps.CurrentLevel == analysis.CurrentLevel {
		ps.TurnsAtLevel++
	} else {
		ps.TurnsAtLevel = 1
		switch analysis.CurrentLevel {
		case PacingHighTension:
			ps.LastClimaxTurn = r.gs.TurnCount
		case PacingCalm:
			ps.LastBreatherTurn = r.gs.TurnCount
		}
	}
	ps.CurrentLevel = analysis.CurrentLevel
	if trend != "" {
		ps.Trend = trend
	}
}
