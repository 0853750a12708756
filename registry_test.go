package main

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return newRegistry(rand.New(rand.NewSource(1)))
}

func TestCreateRoom(t *testing.T) {
	reg := newTestRegistry()

	room, events, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), room.code)
	require.Len(t, room.players, 1)
	assert.Equal(t, "alice", room.players[0].Name)
	assert.True(t, room.players[0].IsHost)
	assert.Equal(t, "c1", room.hostID)
	assert.Equal(t, PhaseLobby, room.state.Phase)

	created := unicastsTo[RoomCreatedMessage](events, "c1")
	require.Len(t, created, 1)
	assert.Equal(t, room.code, created[0].RoomCode)
	assert.True(t, created[0].IsHost)

	found, err := reg.Room(room.code)
	require.NoError(t, err)
	assert.Same(t, room, found)
}

func TestCreateRoomRejectsBadNames(t *testing.T) {
	reg := newTestRegistry()

	_, _, err := reg.CreateRoom("", "c1", nil)
	assert.ErrorIs(t, err, errInvalidName)

	_, _, err = reg.CreateRoom("  ", "c1", nil)
	assert.ErrorIs(t, err, errInvalidName)

	_, _, err = reg.CreateRoom("this name is way past the twenty four character cap", "c1", nil)
	assert.ErrorIs(t, err, errInvalidName)
}

func TestJoinRoom(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	joined, events, err := reg.JoinRoom(room.code, "bob", "c2", nil)
	require.NoError(t, err)
	assert.Same(t, room, joined)
	require.Len(t, room.players, 2)
	assert.False(t, room.players[1].IsHost)

	updates := messagesOf[UpdatePlayersMessage](events)
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].Players, 2)
	for _, entry := range updates[0].Players {
		assert.Nil(t, entry.Alive, "alive is omitted before the game starts")
	}
}

func TestJoinRoomCodeIsCaseInsensitive(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	_, _, err = reg.JoinRoom(strings.ToLower(room.code), "bob", "c2", nil)
	require.NoError(t, err)
}

func TestJoinRoomErrors(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	t.Run("unknown room", func(t *testing.T) {
		_, _, err := reg.JoinRoom("ZZZZZZ", "bob", "c2", nil)
		assert.ErrorIs(t, err, errRoomNotFound)
	})

	t.Run("name taken", func(t *testing.T) {
		_, _, err := reg.JoinRoom(room.code, "alice", "c2", nil)
		assert.ErrorIs(t, err, errNameTaken)
	})

	t.Run("name match is case sensitive", func(t *testing.T) {
		_, _, err := reg.JoinRoom(room.code, "Alice", "c3", nil)
		assert.NoError(t, err)
	})

	t.Run("game already started", func(t *testing.T) {
		room.mu.Lock()
		room.state.Phase = PhaseNight
		room.mu.Unlock()

		_, _, err := reg.JoinRoom(room.code, "carol", "c4", nil)
		assert.ErrorIs(t, err, errGameAlreadyStarted)
	})
}

func TestRemovePlayerPromotesEarliestJoined(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "bob", "c2", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "carol", "c3", nil)
	require.NoError(t, err)

	events := reg.RemovePlayer(room, "c1")

	assert.Equal(t, "c2", room.hostID, "host falls over to the earliest joined player")
	assert.True(t, room.players[0].IsHost)
	require.Len(t, room.players, 2)

	changed := messagesOf[HostChangedMessage](events)
	require.Len(t, changed, 1)
	assert.Equal(t, "c2", changed[0].NewHostID)

	updates := messagesOf[UpdatePlayersMessage](events)
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].Players, 2)
}

func TestRemovePlayerKeepsHostWhenOthersLeave(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "bob", "c2", nil)
	require.NoError(t, err)

	events := reg.RemovePlayer(room, "c2")

	assert.Equal(t, "c1", room.hostID)
	assert.Empty(t, messagesOf[HostChangedMessage](events))
}

func TestLastPlayerLeavingDestroysRoom(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	reg.RemovePlayer(room, "c1")

	_, err = reg.Room(room.code)
	assert.ErrorIs(t, err, errRoomNotFound)
}

func TestRemoveUnknownPlayerIsANoop(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	events := reg.RemovePlayer(room, "c99")
	assert.Empty(t, events)
	require.Len(t, room.players, 1)
}

func TestMidGameDisconnectCanEndGame(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "bob", "c2", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "carol", "c3", nil)
	require.NoError(t, err)

	setRoles(room, PhaseNight, RoleAssassin, RoleCitizen, RoleCitizen)

	// Bob leaving drops the citizens to parity with the assassin.
	events := reg.RemovePlayer(room, "c2")

	assert.Equal(t, PhaseEnd, room.state.Phase)
	assert.Equal(t, WinnerAssassins, room.state.Winner)

	ended := messagesOf[GameEndedMessage](events)
	require.Len(t, ended, 1)
	assert.Equal(t, WinnerAssassins, ended[0].Winner)
}

func TestMidGameDisconnectDropsPendingVote(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "bob", "c2", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "carol", "c3", nil)
	require.NoError(t, err)
	_, _, err = reg.JoinRoom(room.code, "dave", "c4", nil)
	require.NoError(t, err)

	setRoles(room, PhaseDay, RoleAssassin, RoleCitizen, RoleCitizen, RoleCitizen)

	_, err = room.SubmitDayVote("c2", "c1")
	require.NoError(t, err)

	reg.RemovePlayer(room, "c2")

	assert.NotContains(t, room.state.DayVotes, "c2")
	assert.Equal(t, PhaseDay, room.state.Phase, "the shrunken day keeps waiting for the remaining voters")
}

func TestJoinDestroyedRoomIsRefused(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	// The joiner has already resolved the room when the sole player leaves
	// and destroys it.
	reg.RemovePlayer(room, "c1")

	_, err = reg.joinResolved(room, "bob", "c2", nil)
	assert.ErrorIs(t, err, errRoomNotFound)
	assert.Empty(t, room.players, "a destroyed room is never resurrected")
}

func TestJoinReapedRoomIsRefused(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)

	reg.mu.Lock()
	delete(reg.rooms, room.code)
	reg.mu.Unlock()
	room.closeAll()

	_, err = reg.joinResolved(room, "bob", "c2", nil)
	assert.ErrorIs(t, err, errRoomNotFound)
}

func TestJoinRacingLastLeave(t *testing.T) {
	reg := newTestRegistry()

	for i := 0; i < 200; i++ {
		room, _, err := reg.CreateRoom("alice", "c1", nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.RemovePlayer(room, "c1")
		}()

		joined, _, joinErr := reg.JoinRoom(room.code, "bob", "c2", nil)
		wg.Wait()

		if joinErr != nil {
			assert.ErrorIs(t, joinErr, errRoomNotFound)
			continue
		}

		// The join won the race, so the room must still be registered and
		// its host must be on the roster.
		found, err := reg.Room(room.code)
		require.NoError(t, err)
		require.Same(t, joined, found)

		room.mu.Lock()
		hostOnRoster := false
		for _, p := range room.players {
			if p.ID == room.hostID {
				hostOnRoster = true
			}
		}
		room.mu.Unlock()
		require.True(t, hostOnRoster)

		reg.RemovePlayer(room, "c2")
	}
}

func TestMidGameDisconnectPrunesBallotsForDepartedTarget(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom("alice", "c1", nil)
	require.NoError(t, err)
	for i, name := range []string{"bob", "carol", "dave", "erin"} {
		_, _, err = reg.JoinRoom(room.code, name, fmt.Sprintf("c%d", i+2), nil)
		require.NoError(t, err)
	}

	setRoles(room, PhaseDay, RoleAssassin, RoleCitizen, RoleCitizen, RoleCitizen, RoleCitizen)

	_, err = room.SubmitDayVote("c2", "c3")
	require.NoError(t, err)

	reg.RemovePlayer(room, "c3")

	assert.Empty(t, room.state.DayVotes, "ballots naming the departed player no longer count")
	assert.Equal(t, PhaseDay, room.state.Phase)
}

func TestRoomCodesAreUnique(t *testing.T) {
	reg := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, _, err := reg.CreateRoom("alice", "c1", nil)
		require.NoError(t, err)
		assert.False(t, seen[room.code])
		seen[room.code] = true
	}
}
