package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/internal/services"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/storage"
	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/prompts"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

const llmTimeout = 60 * time.Second

// backendPasses are the structured turn phases run after narration, in
// order. Each pass is independent: a failed or invalid response skips
// that phase and the rest of the turn still lands.
var backendPasses = []schema.ID{
	schema.HeavyContext,
	schema.GridUpdate,
	schema.NarrativeThreads,
	schema.PacingAnalysis,
}

// TurnProcessor resolves one player turn end to end: narration,
// structured state passes, reduction, persistence. It is used by the
// worker; the HTTP layer only enqueues.
type TurnProcessor struct {
	storage      storage.Storage
	llmService   services.LLMService
	turnQueue    *queue.TurnQueue
	logger       *slog.Logger
	historyLimit int
	listCap      int
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(
	st storage.Storage,
	llmService services.LLMService,
	turnQueue *queue.TurnQueue,
	logger *slog.Logger,
	historyLimit int,
	listCap int,
) *TurnProcessor {
	if historyLimit <= 0 {
		historyLimit = prompts.DefaultHistoryLimit
	}
	if listCap <= 0 {
		listCap = state.MaxListItems
	}
	return &TurnProcessor{
		storage:      st,
		llmService:   llmService,
		turnQueue:    turnQueue,
		logger:       logger,
		historyLimit: historyLimit,
		listCap:      listCap,
	}
}

// ProcessTurn resolves a single turn. The narration call runs first;
// if it fails, the turn fails and no state is written. The structured
// passes then run against a reducer copy, and only the fully reduced
// state is saved, so readers never see a half-applied turn.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	gs, err := p.storage.LoadGameState(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("game state not found: %s", req.SessionID.String())
	}

	// Repair transcript ordering before anything reads it
	gs.Messages = chat.Sanitize(gs.Messages)

	// Fold queued story beats into the user message for this turn
	userMessage := req.Message
	beatPrompt := ""
	if p.turnQueue != nil {
		beatPrompt, err = p.turnQueue.FormatBeats(ctx, gs.ID)
		if err != nil {
			p.logger.Error("Error reading story beats", "error", err, "session_id", gs.ID.String())
			beatPrompt = ""
		}
	}
	if beatPrompt != "" {
		userMessage = beatPrompt + "\n\n" + userMessage
	}

	messages, err := prompts.New().
		WithGameState(gs).
		WithUserMessage(userMessage, chat.ChatRoleUser).
		WithHistoryLimit(p.historyLimit).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build chat messages: %w", err)
	}

	// Beats are consumed once they reach a prompt
	if beatPrompt != "" && p.turnQueue != nil {
		if err := p.turnQueue.ClearBeats(ctx, gs.ID); err != nil {
			p.logger.Error("Failed to clear story beats", "error", err, "session_id", gs.ID.String())
		}
	}

	chatCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	narration, err := p.llmService.Chat(chatCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM chat failed: %w", err)
	}
	narration = filterBeatMarkers(strings.TrimRight(narration, "\n"))

	appendExchange(gs, userMessage, narration)

	reducer, err := state.NewTurnReducer(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to create reducer: %w", err)
	}
	reducer.WithLogger(p.logger).WithListCap(p.listCap)
	reducer.AdvanceTurn()

	for _, id := range backendPasses {
		p.runBackendPass(ctx, reducer, id)
	}

	final := reducer.State()
	if err := p.storage.SaveGameState(ctx, final.ID, final); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}

	return &chat.TurnResponse{
		SessionID: final.ID,
		Message:   narration,
		TurnCount: final.TurnCount,
		Messages:  prompts.SelectRecentMessages(final.Messages, p.historyLimit),
	}, nil
}

// runBackendPass runs one structured phase against the reducer. All
// failures are contained: an invalid payload is logged and the phase is
// skipped, leaving the state exactly as the prior phases left it.
func (p *TurnProcessor) runBackendPass(ctx context.Context, reducer *state.TurnReducer, id schema.ID) {
	gs := reducer.State()
	log := p.logger.With("session_id", gs.ID.String(), "schema", string(id))

	messages, err := prompts.New().
		WithGameState(gs).
		WithSchema(id).
		WithHistoryLimit(p.historyLimit).
		Build()
	if err != nil {
		log.Error("Failed to build backend prompt", "error", err)
		return
	}

	passCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	raw, err := p.llmService.ChatStructured(passCtx, messages, id)
	if err != nil {
		log.Error("Backend pass failed", "error", err)
		return
	}

	result := schema.Validate(raw, id)
	for _, w := range result.Warnings {
		log.Warn("Backend response warning", "warning", w)
	}
	if !result.OK {
		log.Warn("Rejecting backend response", "errors", strings.Join(result.Errors, "; "))
		return
	}

	switch v := result.Value.(type) {
	case *state.HeavyContextResponse:
		reducer.ApplyHeavyContext(v)
	case *state.GridUpdateResponse:
		reducer.ApplyGrid(v)
	case []state.NarrativeThreadChange:
		reducer.ApplyNarrativeThreads(v)
	case *state.PacingAnalysis:
		reducer.ApplyPacing(v)
	default:
		log.Warn("Backend pass produced unexpected value type")
	}
}

// AnalyzeAction scores a freeform player action. Read-only: nothing is
// persisted, so scoring the same action against the same state twice
// gives the same odds.
func (p *TurnProcessor) AnalyzeAction(ctx context.Context, sessionID uuid.UUID, action string) (*schema.CustomActionAnalysis, error) {
	gs, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := p.structuredCall(ctx, gs, schema.CustomAction, action)
	if err != nil {
		return nil, err
	}

	result := schema.Validate(raw, schema.CustomAction)
	if !result.OK {
		return nil, fmt.Errorf("invalid custom action response: %s", strings.Join(result.Errors, "; "))
	}
	return result.Value.(*schema.CustomActionAnalysis), nil
}

// SuggestOptions generates the action option menu for the current state.
func (p *TurnProcessor) SuggestOptions(ctx context.Context, sessionID uuid.UUID) (*schema.ActionOptionsResponse, error) {
	gs, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := p.structuredCall(ctx, gs, schema.ActionOptions, "")
	if err != nil {
		return nil, err
	}

	result := schema.Validate(raw, schema.ActionOptions)
	if !result.OK {
		return nil, fmt.Errorf("invalid action options response: %s", strings.Join(result.Errors, "; "))
	}
	return result.Value.(*schema.ActionOptionsResponse), nil
}

// ClassifyInput splits freeform player input into action and speech
// segments.
func (p *TurnProcessor) ClassifyInput(ctx context.Context, sessionID uuid.UUID, input string) (*schema.TextClassificationResponse, error) {
	gs, err := p.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := p.structuredCall(ctx, gs, schema.TextClassification, input)
	if err != nil {
		return nil, err
	}

	result := schema.Validate(raw, schema.TextClassification)
	if !result.OK {
		return nil, fmt.Errorf("invalid text classification response: %s", strings.Join(result.Errors, "; "))
	}
	return result.Value.(*schema.TextClassificationResponse), nil
}

// NextOnboardingStep advances the pre-session story setup interview.
// There is no session yet, so the prompt is built over a blank state
// plus the interview transcript so far.
func (p *TurnProcessor) NextOnboardingStep(ctx context.Context, history []chat.ChatMessage, answer string) (*schema.OnboardingStep, error) {
	gs := state.NewGameState()
	gs.Messages = history

	raw, err := p.structuredCall(ctx, gs, schema.Onboarding, answer)
	if err != nil {
		return nil, err
	}

	result := schema.Validate(raw, schema.Onboarding)
	if !result.OK {
		return nil, fmt.Errorf("invalid onboarding response: %s", strings.Join(result.Errors, "; "))
	}
	return result.Value.(*schema.OnboardingStep), nil
}

func (p *TurnProcessor) loadSession(ctx context.Context, sessionID uuid.UUID) (*state.GameState, error) {
	gs, err := p.storage.LoadGameState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("game state not found: %s", sessionID.String())
	}
	gs.Messages = chat.Sanitize(gs.Messages)
	return gs, nil
}

func (p *TurnProcessor) structuredCall(ctx context.Context, gs *state.GameState, id schema.ID, userMessage string) ([]byte, error) {
	messages, err := prompts.New().
		WithGameState(gs).
		WithSchema(id).
		WithUserMessage(userMessage, chat.ChatRoleUser).
		WithHistoryLimit(p.historyLimit).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	raw, err := p.llmService.ChatStructured(callCtx, messages, id)
	if err != nil {
		return nil, fmt.Errorf("LLM structured call failed: %w", err)
	}
	return raw, nil
}

// appendExchange appends the user and narrator messages to the
// transcript with fresh IDs and the next page numbers.
func appendExchange(gs *state.GameState, userMessage, narration string) {
	next := 1
	if n := len(gs.Messages); n > 0 {
		next = gs.Messages[n-1].PageNumber + 1
	}
	now := time.Now()
	gs.Messages = append(gs.Messages,
		chat.ChatMessage{
			ID:         uuid.New(),
			Role:       chat.ChatRoleUser,
			Content:    userMessage,
			PageNumber: next,
			Timestamp:  now,
		},
		chat.ChatMessage{
			ID:         uuid.New(),
			Role:       chat.ChatRoleAgent,
			Content:    narration,
			PageNumber: next + 1,
			Timestamp:  now,
		},
	)
}

// filterBeatMarkers removes "STORY BEAT:" markers from LLM responses.
// The model sometimes echoes them despite instructions not to.
func filterBeatMarkers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= 11 && strings.EqualFold(trimmed[:11], "STORY BEAT:") {
			lines[i] = strings.TrimSpace(trimmed[11:])
		}
	}
	return strings.Join(lines, "\n")
}
