package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftworld/turncore/pkg/chat"
)

func validState() *GameState {
	gs := NewGameState()
	gs.Locations["tavern"] = Location{Name: "The Rusty Anchor"}
	gs.Characters["player"] = Character{
		ID:         "player",
		Name:       "Mira",
		LocationID: "tavern",
		IsPlayer:   true,
		Stats:      map[string]int{"hp": 20, "maxHp": 20, "gold": 10},
	}
	gs.PlayerCharacterID = "player"
	gs.CurrentLocationID = "tavern"
	return gs
}

func TestGameState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameState)
		wantErr string
	}{
		{
			name:   "valid state",
			mutate: func(gs *GameState) {},
		},
		{
			name: "no player character",
			mutate: func(gs *GameState) {
				delete(gs.Characters, "player")
			},
			wantErr: "exactly one player",
		},
		{
			name: "player id mismatch",
			mutate: func(gs *GameState) {
				gs.PlayerCharacterID = "someone-else"
			},
			wantErr: "does not match player_character_id",
		},
		{
			name: "character in unknown location",
			mutate: func(gs *GameState) {
				gs.Characters["barkeep"] = Character{ID: "barkeep", Name: "Orin", LocationID: "void"}
			},
			wantErr: "unknown location",
		},
		{
			name: "unresolvable current location",
			mutate: func(gs *GameState) {
				gs.CurrentLocationID = "nowhere"
			},
			wantErr: "does not resolve",
		},
		{
			name: "duplicate grid symbol",
			mutate: func(gs *GameState) {
				gs.GridSnapshots = []GridSnapshot{{
					Elements: []GridElement{
						{Symbol: "D", Name: "Door", Position: Position{X: 1, Y: 1}},
						{Symbol: "D", Name: "Other Door", Position: Position{X: 2, Y: 2}},
					},
				}}
			},
			wantErr: "duplicate element symbol",
		},
		{
			name: "non-increasing page numbers",
			mutate: func(gs *GameState) {
				gs.Messages = []chat.ChatMessage{
					{Role: chat.ChatRoleUser, Content: "a", PageNumber: 2},
					{Role: chat.ChatRoleAgent, Content: "b", PageNumber: 2},
				}
			},
			wantErr: "strictly increasing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := validState()
			tc.mutate(gs)
			err := gs.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestGameState_DeepCopyIsIndependent(t *testing.T) {
	gs := validState()
	gs.HeavyContext.ActiveProblems = []string{"storm approaching"}

	cp, err := gs.DeepCopy()
	require.NoError(t, err)

	cp.HeavyContext.ActiveProblems[0] = "changed"
	cp.Characters["player"] = Character{ID: "player", Name: "Imposter", IsPlayer: true}

	assert.Equal(t, "storm approaching", gs.HeavyContext.ActiveProblems[0])
	assert.Equal(t, "Mira", gs.Characters["player"].Name)
}

func TestGameState_Player(t *testing.T) {
	gs := validState()
	p, ok := gs.Player()
	require.True(t, ok)
	assert.Equal(t, "Mira", p.Name)

	gs.PlayerCharacterID = "missing"
	_, ok = gs.Player()
	assert.False(t, ok)
}

func TestGameState_LatestGridSnapshot(t *testing.T) {
	gs := validState()
	assert.Nil(t, gs.LatestGridSnapshot())

	gs.GridSnapshots = []GridSnapshot{{Turn: 1}, {Turn: 2}}
	latest := gs.LatestGridSnapshot()
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Turn)
}

func TestPosition_Clamp(t *testing.T) {
	assert.Equal(t, Position{X: 0, Y: 0}, Position{X: -5, Y: -1}.Clamp())
	assert.Equal(t, Position{X: GridSize - 1, Y: GridSize - 1}, Position{X: 99, Y: 10}.Clamp())
	assert.Equal(t, Position{X: 4, Y: 7}, Position{X: 4, Y: 7}.Clamp())
}

func TestValidSymbol(t *testing.T) {
	assert.True(t, ValidSymbol("A"))
	assert.True(t, ValidSymbol("Z"))
	assert.False(t, ValidSymbol("a"))
	assert.False(t, ValidSymbol("AB"))
	assert.False(t, ValidSymbol(""))
	assert.False(t, ValidSymbol("1"))
}
