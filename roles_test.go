package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleQuotas(t *testing.T) {
	tests := []struct {
		players    int
		assassins  int
		detectives int
	}{
		{7, 1, 1},
		{8, 1, 1},
		{9, 2, 1},
		{10, 2, 1},
		{11, 2, 2},
		{12, 2, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_players", tt.players), func(t *testing.T) {
			assassins, detectives, angels := roleQuotas(tt.players)

			assert.Equal(t, tt.assassins, assassins)
			assert.Equal(t, tt.detectives, detectives)
			assert.Equal(t, 1, angels)

			citizens := tt.players - assassins - detectives - angels
			assert.Positive(t, citizens)
			assert.Equal(t, tt.players, assassins+detectives+angels+citizens)
		})
	}
}

func TestAssignRolesComposition(t *testing.T) {
	for n := minPlayers; n <= maxPlayers; n++ {
		t.Run(fmt.Sprintf("%d_players", n), func(t *testing.T) {
			room := newLobbyRoom(t, n)
			assignRoles(room.players, rand.New(rand.NewSource(42)))

			counts := make(map[Role]int)
			for _, p := range room.players {
				counts[p.Role]++
				assert.True(t, p.Alive)
				assert.False(t, p.Protected)
			}

			assassins, detectives, angels := roleQuotas(n)
			assert.Equal(t, assassins, counts[RoleAssassin])
			assert.Equal(t, detectives, counts[RoleDetective])
			assert.Equal(t, angels, counts[RoleAngel])
			assert.Equal(t, n-assassins-detectives-angels, counts[RoleCitizen])
		})
	}
}

func TestAssignRolesDeterministicUnderSeed(t *testing.T) {
	first := newLobbyRoom(t, 9)
	second := newLobbyRoom(t, 9)

	assignRoles(first.players, rand.New(rand.NewSource(7)))
	assignRoles(second.players, rand.New(rand.NewSource(7)))

	require.Len(t, second.players, len(first.players))
	for i := range first.players {
		assert.Equal(t, first.players[i].Role, second.players[i].Role)
	}
}

func TestClearRolesPreservesIdentity(t *testing.T) {
	room := startTestGame(t, 7)
	room.players[2].Alive = false

	clearRoles(room.players)

	for _, p := range room.players {
		assert.Empty(t, p.Role)
		assert.True(t, p.Alive)
		assert.False(t, p.Protected)
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
	}
	assert.True(t, room.players[0].IsHost)
}
