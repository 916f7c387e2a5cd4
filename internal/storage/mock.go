package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/pkg/state"
)

// MockStorage is an in-memory Storage implementation for tests.
type MockStorage struct {
	mu         sync.Mutex
	gameStates map[uuid.UUID]*state.GameState

	// Error injection
	PingErr   error
	SaveErr   error
	LoadErr   error
	DeleteErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		gameStates: make(map[uuid.UUID]*state.GameState),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp, err := gs.DeepCopy()
	if err != nil {
		return fmt.Errorf("failed to copy game state: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gameStates[id] = cp
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, ok := m.gameStates[id]
	if !ok {
		return nil, nil
	}
	return gs.DeepCopy()
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gameStates, id)
	return nil
}

func (m *MockStorage) ListGameStates(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.gameStates))
	for id := range m.gameStates {
		ids = append(ids, id)
	}
	return ids, nil
}
