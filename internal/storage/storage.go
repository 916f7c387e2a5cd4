package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/driftworld/turncore/pkg/state"
)

// Storage persists session game states between turns. Saves are atomic
// full-document replaces: a reader never observes a partially-applied
// turn.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error
	ListGameStates(ctx context.Context) ([]uuid.UUID, error)
}
