package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/internal/services"
	"github.com/driftworld/turncore/internal/services/queue"
	"github.com/driftworld/turncore/internal/storage"
	pkgqueue "github.com/driftworld/turncore/pkg/queue"
)

type workerFixture struct {
	worker *Worker
	store  *storage.MockStorage
	queue  *queue.TurnQueue
	rdb    *redis.Client
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	log := discardLogger()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	turnQueue := queue.NewTurnQueue(queue.NewClientWithRedis(rdb, log))
	store := storage.NewMockStorage()
	processor := NewTurnProcessor(store, services.NewMockLLMService(), turnQueue, log, 0, 0)

	return &workerFixture{
		worker: New(turnQueue, processor, rdb, log, "worker-test"),
		store:  store,
		queue:  turnQueue,
		rdb:    rdb,
	}
}

func TestWorker_ProcessesQueuedTurn(t *testing.T) {
	f := newWorkerFixture(t)
	gs := seedSession(t, f.store)
	ctx := context.Background()

	require.NoError(t, f.queue.EnqueueRequest(ctx, &pkgqueue.Request{
		RequestID:  uuid.New().String(),
		Type:       pkgqueue.RequestTypeTurn,
		SessionID:  gs.ID,
		Message:    "I knock on the door",
		EnqueuedAt: time.Now(),
	}))

	require.NoError(t, f.worker.processNextRequest())

	saved, err := f.store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.TurnCount)

	depth, err := f.queue.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth)

	// The session lock is released after the turn.
	exists, err := f.rdb.Exists(ctx, "session-lock:"+gs.ID.String()).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestWorker_StoryBeatRequest(t *testing.T) {
	f := newWorkerFixture(t)
	gs := seedSession(t, f.store)
	ctx := context.Background()

	require.NoError(t, f.queue.EnqueueRequest(ctx, &pkgqueue.Request{
		RequestID:  uuid.New().String(),
		Type:       pkgqueue.RequestTypeStoryBeat,
		SessionID:  gs.ID,
		BeatPrompt: "Thunder cracks overhead.",
		EnqueuedAt: time.Now(),
	}))

	require.NoError(t, f.worker.processNextRequest())

	saved, err := f.store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.Len(t, saved.Messages, 4)
	assert.Contains(t, saved.Messages[2].Content, "STORY BEAT: Thunder cracks overhead.")
}

func TestWorker_RequeuesLockedSession(t *testing.T) {
	f := newWorkerFixture(t)
	gs := seedSession(t, f.store)
	ctx := context.Background()

	// Another worker holds the session.
	require.NoError(t, f.rdb.SetNX(ctx, "session-lock:"+gs.ID.String(), "other-worker", time.Minute).Err())

	require.NoError(t, f.queue.EnqueueRequest(ctx, &pkgqueue.Request{
		RequestID:  uuid.New().String(),
		Type:       pkgqueue.RequestTypeTurn,
		SessionID:  gs.ID,
		Message:    "I wait",
		EnqueuedAt: time.Now(),
	}))

	require.NoError(t, f.worker.processNextRequest())

	// The turn was not processed and the request went back on the queue.
	saved, err := f.store.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.TurnCount)

	depth, err := f.queue.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestWorker_StopCancelsLoop(t *testing.T) {
	f := newWorkerFixture(t)

	done := make(chan error, 1)
	go func() {
		done <- f.worker.Start()
	}()

	f.worker.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
}
