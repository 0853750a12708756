package main

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Registry holds every live room keyed by code, so each room is its own
// isolated session. The registry mutex guards only the directory itself
// (creation, lookup, destruction); each room serializes its own events.
// When both locks are needed, the registry lock is taken first.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

func newRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// newCodeLocked generates a 6-character uppercase alphanumeric room code not
// currently in use, retrying on collision. Assumes g.mu is held.
func (g *Registry) newCodeLocked() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeLetters[g.rng.Intn(len(codeLetters))]
		}
		code := string(buf)

		if _, exists := g.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom makes a new room with the requesting connection as its sole
// player and host. It cannot fail short of code-space exhaustion.
func (g *Registry) CreateRoom(name, playerID string, c *client) (*Room, []outbound, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, nil, errInvalidName
	}

	g.mu.Lock()
	code := g.newCodeLocked()
	room := newRoom(code, rand.New(rand.NewSource(g.rng.Int63())))
	room.players = append(room.players, &Player{
		ID:     playerID,
		Name:   name,
		IsHost: true,
	})
	room.hostID = playerID
	if c != nil {
		room.clients[playerID] = c
	}

	// Publish the room only once it is fully populated, so a concurrent
	// join by code can never observe an empty roster.
	g.rooms[code] = room
	g.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	events := []outbound{
		unicast(playerID, RoomCreatedMessage{
			Type:     "room_created",
			RoomCode: code,
			IsHost:   true,
		}),
		broadcast(UpdatePlayersMessage{
			Type:    "update_players",
			Players: room.rosterLocked(),
		}),
	}

	room.deliverLocked(events)
	return room, events, nil
}

// JoinRoom adds a player to an existing lobby. Codes are matched
// case-insensitively; display names are matched exactly.
func (g *Registry) JoinRoom(code, name, playerID string, c *client) (*Room, []outbound, error) {
	room, err := g.Room(code)
	if err != nil {
		return nil, nil, err
	}

	events, err := g.joinResolved(room, name, playerID, c)
	if err != nil {
		return nil, nil, err
	}
	return room, events, nil
}

// joinResolved admits a player to an already-resolved room. The room may
// have been destroyed between lookup and lock, by its last player leaving
// or by the reaper; a destroyed room always has an empty roster, so the
// join is refused instead of resurrecting an unregistered room.
func (g *Registry) joinResolved(room *Room, name, playerID string, c *client) ([]outbound, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, errInvalidName
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.players) == 0 {
		return nil, errRoomNotFound
	}
	room.lastActive = time.Now()

	if room.state.Phase != PhaseLobby {
		return nil, errGameAlreadyStarted
	}
	for _, p := range room.players {
		if p.Name == name {
			return nil, errNameTaken
		}
	}

	room.players = append(room.players, &Player{
		ID:   playerID,
		Name: name,
	})
	if c != nil {
		room.clients[playerID] = c
	}

	events := []outbound{
		unicast(playerID, RoomJoinedMessage{
			Type:     "room_joined",
			RoomCode: room.code,
			IsHost:   false,
		}),
		broadcast(UpdatePlayersMessage{
			Type:    "update_players",
			Players: room.rosterLocked(),
		}),
	}

	room.deliverLocked(events)
	return events, nil
}

// Room looks up a live room by code.
func (g *Registry) Room(code string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, errRoomNotFound
	}
	return room, nil
}

// RemovePlayer drops a player from their room, typically on disconnect. The
// last player leaving destroys the room. A departing host hands the role to
// the earliest-joined remaining player. Mid-game, the shrunken roster is
// re-checked for a win so the room is never left in an unwinnable state.
func (g *Registry) RemovePlayer(room *Room, playerID string) []outbound {
	g.mu.Lock()
	room.mu.Lock()
	defer room.mu.Unlock()

	idx := -1
	for i, p := range room.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		g.mu.Unlock()
		return nil
	}

	room.players = append(room.players[:idx], room.players[idx+1:]...)
	if c, ok := room.clients[playerID]; ok {
		delete(room.clients, playerID)
		c.closeSend()
	}

	// Drop the departing player's own ballot and any ballots naming them,
	// so the tally never counts a vote involving someone no longer present.
	delete(room.state.DayVotes, playerID)
	for voter, target := range room.state.DayVotes {
		if target == playerID {
			delete(room.state.DayVotes, voter)
		}
	}
	room.lastActive = time.Now()

	if len(room.players) == 0 {
		delete(g.rooms, room.code)
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	events := []outbound{}

	if playerID == room.hostID {
		next := room.players[0]
		next.IsHost = true
		room.hostID = next.ID
		events = append(events, broadcast(HostChangedMessage{
			Type:      "host_changed",
			NewHostID: next.ID,
		}))
	}

	events = append(events, broadcast(UpdatePlayersMessage{
		Type:    "update_players",
		Players: room.rosterLocked(),
	}))

	// A departure mid-game can hand either faction the win.
	if room.state.Phase == PhaseNight || room.state.Phase == PhaseDay {
		if winner := evaluateWinner(room.players); winner != WinnerNone {
			room.state.Phase = PhaseEnd
			room.state.Winner = winner
			events = append(events, broadcast(GameEndedMessage{
				Type:    "game_ended",
				Players: room.revealAllLocked(),
				Winner:  winner,
				Message: winnerMessage(winner),
			}))
		}
	}

	room.deliverLocked(events)
	return events
}

// reaper periodically destroys rooms that have been idle longer than
// timeout, disconnecting any lingering clients.
func (g *Registry) reaper(cfg *Config, timeout time.Duration) {
	ticker := time.NewTicker(timeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-timeout)

		g.mu.Lock()
		var stale []*Room
		for code, room := range g.rooms {
			room.mu.Lock()
			idle := room.lastActive.Before(cutoff)
			room.mu.Unlock()

			if idle {
				delete(g.rooms, code)
				stale = append(stale, room)
			}
		}
		g.mu.Unlock()

		for _, room := range stale {
			logf(cfg, "ROOMS: Reaped idle room %s", room.code)
			room.closeAll()
		}
	}
}

// closeAll disconnects every client of a room and empties its roster, so a
// join still holding a pointer to the reaped room is refused. Used by the
// reaper.
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.clients {
		c.closeSend()
		_ = c.conn.Close()
		delete(r.clients, id)
	}
	r.players = nil
}
