package state

import "log/slog"

// Convenience single-delta reducers. Each takes the current snapshot
// and one validated delta, and returns the next snapshot without
// touching the input. For multi-delta turns, use TurnReducer directly
// so one deep copy covers the whole turn.

// ReduceHeavyContext applies a heavy-context delta.
func ReduceHeavyContext(gs *GameState, resp *HeavyContextResponse, logger *slog.Logger) (*GameState, error) {
	r, err := NewTurnReducer(gs)
	if err != nil {
		return nil, err
	}
	r.WithLogger(logger).ApplyHeavyContext(resp)
	return r.State(), nil
}

// ReduceGrid applies a grid update.
func ReduceGrid(gs *GameState, resp *GridUpdateResponse, logger *slog.Logger) (*GameState, error) {
	r, err := NewTurnReducer(gs)
	if err != nil {
		return nil, err
	}
	r.WithLogger(logger).ApplyGrid(resp)
	return r.State(), nil
}

// ReduceNarrativeThreads applies thread lifecycle transitions.
func ReduceNarrativeThreads(gs *GameState, changes []NarrativeThreadChange, logger *slog.Logger) (*GameState, error) {
	r, err := NewTurnReducer(gs)
	if err != nil {
		return nil, err
	}
	r.WithLogger(logger)
	r.ApplyNarrativeThreads(changes)
	return r.State(), nil
}

// ReducePacing applies a pacing analysis.
func ReducePacing(gs *GameState, analysis *PacingAnalysis, logger *slog.Logger) (*GameState, error) {
	r, err := NewTurnReducer(gs)
	if err != nil {
		return nil, err
	}
	r.WithLogger(logger)
	r.ApplyPacing(analysis)
	return r.State(), nil
}
