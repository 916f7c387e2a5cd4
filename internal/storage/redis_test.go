package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/pkg/state"
)

func testStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisStorageWithClient(client, logger), mr
}

func TestRedisStorage_SaveAndLoad(t *testing.T) {
	store, _ := testStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	gs.HeavyContext.MainMission = "find the heir"
	gs.TurnCount = 7

	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))
	assert.False(t, gs.UpdatedAt.IsZero())

	loaded, err := store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, "find the heir", loaded.HeavyContext.MainMission)
	assert.Equal(t, 7, loaded.TurnCount)
}

func TestRedisStorage_LoadMissingReturnsNil(t *testing.T) {
	store, _ := testStorage(t)

	loaded, err := store.LoadGameState(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_SaveIsFullReplace(t *testing.T) {
	store, _ := testStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	gs.HeavyContext.ActiveProblems = []string{"one", "two"}
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))

	gs.HeavyContext.ActiveProblems = []string{"three"}
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))

	loaded, err := store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"three"}, loaded.HeavyContext.ActiveProblems)
}

func TestRedisStorage_SaveSetsTTL(t *testing.T) {
	store, mr := testStorage(t)

	gs := state.NewGameState()
	require.NoError(t, store.SaveGameState(context.Background(), gs.ID, gs))

	key := "gamestate:" + gs.ID.String()
	require.True(t, mr.Exists(key))
	assert.Equal(t, GameStateTTL, mr.TTL(key))
}

func TestRedisStorage_Delete(t *testing.T) {
	store, _ := testStorage(t)
	ctx := context.Background()

	gs := state.NewGameState()
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))
	require.NoError(t, store.DeleteGameState(ctx, gs.ID))

	loaded, err := store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_ListGameStates(t *testing.T) {
	store, mr := testStorage(t)
	ctx := context.Background()

	a := state.NewGameState()
	b := state.NewGameState()
	require.NoError(t, store.SaveGameState(ctx, a.ID, a))
	require.NoError(t, store.SaveGameState(ctx, b.ID, b))

	// Unrelated and malformed keys are ignored.
	mr.Set("other:key", "x")
	mr.Set("gamestate:not-a-uuid", "y")

	ids, err := store.ListGameStates(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)
}

func TestMockStorage_DeepCopies(t *testing.T) {
	store := NewMockStorage()
	ctx := context.Background()

	gs := state.NewGameState()
	gs.HeavyContext.MainMission = "original"
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))

	// Mutating the caller's copy after save must not leak into storage.
	gs.HeavyContext.MainMission = "mutated"

	loaded, err := store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.HeavyContext.MainMission)

	// And mutating a loaded copy must not leak either.
	loaded.HeavyContext.MainMission = "mutated again"
	reloaded, err := store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", reloaded.HeavyContext.MainMission)
}
