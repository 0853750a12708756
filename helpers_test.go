package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// newLobbyRoom builds a seeded room with n players in the lobby, p1 hosting.
func newLobbyRoom(t *testing.T, n int) *Room {
	t.Helper()

	room := newRoom("TEST01", rand.New(rand.NewSource(1)))
	for i := 0; i < n; i++ {
		p := &Player{
			ID:   fmt.Sprintf("p%d", i+1),
			Name: fmt.Sprintf("Player%d", i+1),
		}
		if i == 0 {
			p.IsHost = true
			room.hostID = p.ID
		}
		room.players = append(room.players, p)
	}
	return room
}

// startTestGame builds a room of n players and starts the game as the host.
func startTestGame(t *testing.T, n int) *Room {
	t.Helper()

	room := newLobbyRoom(t, n)
	_, err := room.StartGame("p1")
	require.NoError(t, err)
	return room
}

// setRoles force-assigns roles in roster order and puts the room into the
// given phase, bypassing the shuffle for tests that need a fixed layout.
func setRoles(room *Room, phase Phase, roles ...Role) {
	for i, p := range room.players {
		p.Role = roles[i]
		p.Alive = true
		p.Protected = false
	}
	room.state = newGameState(phase, 1)
}

func playersByRole(room *Room, role Role) []*Player {
	var out []*Player
	for _, p := range room.players {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// messagesOf collects every delivered payload of one message type,
// regardless of recipient.
func messagesOf[T any](events []outbound) []T {
	var out []T
	for _, ev := range events {
		if msg, ok := ev.msg.(T); ok {
			out = append(out, msg)
		}
	}
	return out
}

// unicastsTo collects payloads of one type addressed to a single player.
func unicastsTo[T any](events []outbound, playerID string) []T {
	var out []T
	for _, ev := range events {
		if ev.to != playerID {
			continue
		}
		if msg, ok := ev.msg.(T); ok {
			out = append(out, msg)
		}
	}
	return out
}
