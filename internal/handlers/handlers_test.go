package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/internal/services"
	"github.com/driftworld/turncore/internal/services/events"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/storage"
	"github.com/driftworld/turncore/internal/worker"
	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAPI wires handlers into a mux with the same patterns as cmd/api,
// so PathValue resolution behaves like production.
type testAPI struct {
	mux   *http.ServeMux
	store *storage.MockStorage
	llm   *services.MockLLMService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := discardLogger()
	store := storage.NewMockStorage()
	llm := services.NewMockLLMService()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queueClient := queue.NewClientWithRedis(rdb, log)
	turnQueue := queue.NewTurnQueue(queueClient)
	broadcaster := events.NewBroadcaster(rdb, log)

	processor := worker.NewTurnProcessor(store, llm, turnQueue, log, 0, 0)

	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthHandler(store, log))

	sessionHandler := NewSessionHandler(store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/{id}", sessionHandler)

	mux.Handle("/v1/sessions/{id}/turns", NewTurnHandler(processor, turnQueue, broadcaster, log))

	actionsHandler := NewActionsHandler(processor, log)
	mux.HandleFunc("/v1/sessions/{id}/actions", actionsHandler.Options)
	mux.HandleFunc("/v1/sessions/{id}/actions/analyze", actionsHandler.Analyze)
	mux.HandleFunc("/v1/sessions/{id}/classify", actionsHandler.Classify)

	mux.Handle("/v1/onboarding", NewOnboardingHandler(processor, log))

	return &testAPI{mux: mux, store: store, llm: llm}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createSession(t *testing.T) *state.GameState {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/sessions", CreateSessionRequest{
		Config: schema.StoryConfig{
			PlayerName: "Mira",
			Setting:    "A rain-soaked port town",
		},
		OpeningNarration: "Rain hammers the docks as you arrive.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var gs state.GameState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gs))
	return &gs
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "turncore", resp.Service)
	assert.Equal(t, "healthy", resp.Components["storage"])
}

func TestHealthz_DegradedStorage(t *testing.T) {
	api := newTestAPI(t)
	api.store.PingErr = errors.New("connection refused")

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestCreateSession(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	assert.NotEqual(t, uuid.Nil, gs.ID)
	assert.Equal(t, "start", gs.CurrentLocationID)
	assert.Equal(t, "A rain-soaked port town", gs.Locations["start"].Name)

	player, ok := gs.Player()
	require.True(t, ok)
	assert.Equal(t, "Mira", player.Name)
	assert.Equal(t, 20, player.Stats["maxHp"])

	require.Len(t, gs.Messages, 1)
	assert.Equal(t, chat.ChatRoleAgent, gs.Messages[0].Role)
	assert.Equal(t, 1, gs.Messages[0].PageNumber)

	// Persisted, not just returned.
	saved, err := api.store.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
}

func TestCreateSession_CustomLocations(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/sessions", CreateSessionRequest{
		Config: schema.StoryConfig{PlayerName: "Renn"},
		Locations: map[string]state.Location{
			"harbor": {Name: "The Harbor"},
			"market": {Name: "Fish Market"},
		},
		StartingLocationID: "market",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var gs state.GameState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gs))
	assert.Equal(t, "market", gs.CurrentLocationID)
	assert.Len(t, gs.Locations, 2)
}

func TestCreateSession_BadStartingLocation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/sessions", CreateSessionRequest{
		Config:             schema.StoryConfig{PlayerName: "Renn"},
		Locations:          map[string]state.Location{"harbor": {Name: "The Harbor"}},
		StartingLocationID: "nowhere",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodGet, "/v1/sessions/"+gs.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded state.GameState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, gs.ID, loaded.ID)
}

func TestGetSession_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSession_InvalidID(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodDelete, "/v1/sessions/"+gs.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/sessions/"+gs.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostTurn_Sync(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodPost, "/v1/sessions/"+gs.ID.String()+"/turns",
		map[string]string{"message": "I head for the tavern"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chat.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, gs.ID, resp.SessionID)
	assert.Equal(t, "Mock narration", resp.Message)
	assert.Equal(t, 1, resp.TurnCount)
}

func TestPostTurn_EmptyMessage(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodPost, "/v1/sessions/"+gs.ID.String()+"/turns",
		map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostTurn_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodGet, "/v1/sessions/"+gs.ID.String()+"/turns", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPostTurn_Async(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	rec := api.do(t, http.MethodPost, "/v1/sessions/"+gs.ID.String()+"/turns?async=1",
		map[string]string{"message": "I wait"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp QueuedTurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, gs.ID, resp.SessionID)
	assert.NotEmpty(t, resp.RequestID)

	// Async submission does not resolve the turn inline.
	saved, err := api.store.LoadGameState(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.TurnCount)
}

func TestActionsOptions(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	option := `{"text":"Ask the barkeep","goodChance":30,"badChance":10}`
	api.llm.SetStructuredResponse(schema.ActionOptions,
		[]byte(`{"options":[`+option+`,`+option+`,`+option+`,`+option+`,`+option+`]}`))

	rec := api.do(t, http.MethodGet, "/v1/sessions/"+gs.ID.String()+"/actions", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp schema.ActionOptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Options, schema.ActionOptionLen)
}

func TestActionsAnalyze(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	api.llm.SetStructuredResponse(schema.CustomAction,
		[]byte(`{"goodChance":20,"badChance":40,"reasoning":"the guard is alert"}`))

	rec := api.do(t, http.MethodPost, "/v1/sessions/"+gs.ID.String()+"/actions/analyze",
		map[string]string{"action": "steal the keys"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp schema.CustomActionAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.GoodChance)
	assert.Equal(t, 40, resp.BadChance)
}

func TestClassify(t *testing.T) {
	api := newTestAPI(t)
	gs := api.createSession(t)

	api.llm.SetStructuredResponse(schema.TextClassification,
		[]byte(`{"segments":[{"type":"action","content":"draws the blade"}]}`))

	rec := api.do(t, http.MethodPost, "/v1/sessions/"+gs.ID.String()+"/classify",
		map[string]string{"text": "I draw my blade"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp schema.TextClassificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, schema.SegmentTypeAction, resp.Segments[0].Type)
}

func TestOnboarding(t *testing.T) {
	api := newTestAPI(t)

	api.llm.SetStructuredResponse(schema.Onboarding,
		[]byte(`{"question":"What genre?","controlType":"select","options":["fantasy","noir"],"isComplete":false}`))

	rec := api.do(t, http.MethodPost, "/v1/onboarding", map[string]any{
		"history": []chat.ChatMessage{},
		"answer":  "",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var step schema.OnboardingStep
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.Equal(t, "What genre?", step.Question)
	assert.False(t, step.IsComplete)
}
