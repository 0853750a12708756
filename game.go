// Nightfall is a social-deduction party game in the "werewolf" family.
//
// Players join a room identified by a short code. When the host starts the
// game, every player is secretly assigned a role: assassins try to eliminate
// the town, the detective may investigate one player per night, the angel may
// protect one player per night, and everyone else is a citizen. The game
// alternates between a night phase (secret role actions) and a day phase
// (public elimination vote) until one faction wins.
//
// Implementation details:
// - One websocket per player; events are JSON objects with a "type" field
// - Each room is its own isolated session, serialized by a per-room mutex
// - Nothing is persisted; all rooms live in process memory

package main

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// Phase is the current stage of a room's game.
type Phase string

const (
	PhaseLobby Phase = "lobby"
	PhaseNight Phase = "night"
	PhaseDay   Phase = "day"
	PhaseEnd   Phase = "end"
)

// Role is a player's hidden role. The zero value means unassigned (lobby).
type Role string

const (
	RoleAssassin  Role = "assassin"
	RoleDetective Role = "detective"
	RoleAngel     Role = "angel"
	RoleCitizen   Role = "citizen"
)

// Winner identifies the faction that has won, if any.
type Winner string

const (
	WinnerNone      Winner = ""
	WinnerCitizens  Winner = "citizens"
	WinnerAssassins Winner = "assassins"
)

// ActionKind is the night action a client requests.
type ActionKind string

const (
	ActionKill        ActionKind = "kill"
	ActionInvestigate ActionKind = "investigate"
	ActionProtect     ActionKind = "protect"
)

// roleForAction maps each night action to the only role allowed to perform it.
var roleForAction = map[ActionKind]Role{
	ActionKill:        RoleAssassin,
	ActionInvestigate: RoleDetective,
	ActionProtect:     RoleAngel,
}

const (
	minPlayers  = 7
	maxPlayers  = 12
	maxNameLen  = 24
	codeLength  = 6
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Recoverable request errors. Each is reported only to the offending
// connection and never mutates room state.
var (
	errRoomNotFound       = errors.New("room not found")
	errAlreadyInRoom      = errors.New("this connection already belongs to a room")
	errGameAlreadyStarted = errors.New("the game in this room has already started")
	errNameTaken          = errors.New("that name is already in use in this room")
	errInvalidName        = errors.New("name must be between 1 and 24 characters")
	errNotHost            = errors.New("only the host can do that")
	errInvalidPlayerCount = errors.New("the game needs between 7 and 12 players to start")
	errInvalidAction      = errors.New("invalid action")
	errInvalidTarget      = errors.New("invalid target: that player does not exist or is no longer alive")
	errInvalidVote        = errors.New("invalid vote")
)

// Player holds the server-side state for one roster slot.
type Player struct {
	ID        string
	Name      string
	IsHost    bool
	Role      Role
	Alive     bool
	Protected bool
}

// NightActions tracks at most one pending target per acting role category.
// With two assassins (or detectives), the last submission for the category
// wins.
type NightActions struct {
	AssassinTarget  string `json:"assassinTarget,omitempty"`
	DetectiveTarget string `json:"detectiveTarget,omitempty"`
	AngelTarget     string `json:"angelTarget,omitempty"`
}

// GameState is the per-room state machine payload shared with clients.
// NightActions is always cleared before it is sent anywhere.
type GameState struct {
	Phase         Phase             `json:"phase"`
	Round         int               `json:"round"`
	NightActions  NightActions      `json:"nightActions"`
	DayVotes      map[string]string `json:"dayVotes"`
	Winner        Winner            `json:"winner,omitempty"`
	NightMessages []string          `json:"nightMessages"`
	DayMessages   []string          `json:"dayMessages"`
	Message       string            `json:"message,omitempty"`
}

func newGameState(phase Phase, round int) GameState {
	return GameState{
		Phase:         phase,
		Round:         round,
		DayVotes:      make(map[string]string),
		NightMessages: []string{},
		DayMessages:   []string{},
	}
}

// Room is one isolated game session. All mutations happen under mu, so
// events targeting the same room never interleave while unrelated rooms
// proceed in parallel.
type Room struct {
	mu sync.Mutex

	code    string
	players []*Player // join order; used for host failover
	hostID  string
	state   GameState

	clients    map[string]*client // player id -> connection
	rng        *rand.Rand
	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code string, rng *rand.Rand) *Room {
	now := time.Now()
	return &Room{
		code:       code,
		state:      newGameState(PhaseLobby, 0),
		clients:    make(map[string]*client),
		rng:        rng,
		createdAt:  now,
		lastActive: now,
	}
}

// outbound is one engine outcome waiting for delivery: a unicast when to is
// a player id, a room-wide broadcast when to is empty.
type outbound struct {
	to  string
	msg any
}

func broadcast(msg any) outbound { return outbound{msg: msg} }

func unicast(to string, msg any) outbound { return outbound{to: to, msg: msg} }

// playerByID assumes r.mu is held.
func (r *Room) playerByID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) aliveCountLocked() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// hasLivingRoleLocked reports whether any living player holds the role.
func (r *Room) hasLivingRoleLocked(role Role) bool {
	for _, p := range r.players {
		if p.Alive && p.Role == role {
			return true
		}
	}
	return false
}

// rosterLocked builds the pre-game roster broadcast for update_players.
// Roles are never included; alive is only meaningful once a game is running.
func (r *Room) rosterLocked() []RosterEntry {
	roster := make([]RosterEntry, 0, len(r.players))
	for _, p := range r.players {
		entry := RosterEntry{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
		}
		if r.state.Phase != PhaseLobby {
			alive := p.Alive
			entry.Alive = &alive
		}
		roster = append(roster, entry)
	}
	return roster
}

// viewForLocked projects the roster for one recipient: every player's role
// is withheld except the viewer's own.
func (r *Room) viewForLocked(viewerID string) []PlayerView {
	views := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		view := PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			Alive:  p.Alive,
		}
		if p.ID == viewerID {
			role := p.Role
			view.Role = &role
		}
		views = append(views, view)
	}
	return views
}

// revealAllLocked projects the roster with every role visible, used once the
// game has ended.
func (r *Room) revealAllLocked() []PlayerView {
	views := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		role := p.Role
		views = append(views, PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			Alive:  p.Alive,
			Role:   &role,
		})
	}
	return views
}

// wireStateLocked copies the game state for transmission, with pending night
// actions withheld and an optional transition flavor message.
func (r *Room) wireStateLocked(message string) GameState {
	state := r.state
	state.NightActions = NightActions{}
	state.Message = message
	return state
}

// deliverLocked pushes events to connected clients. Slow clients are dropped
// rather than blocking the room. Rooms with no registered connections make
// this a no-op.
func (r *Room) deliverLocked(events []outbound) {
	for _, ev := range events {
		if ev.to != "" {
			c, ok := r.clients[ev.to]
			if !ok {
				continue
			}
			if !c.trySend(ev.msg) {
				delete(r.clients, ev.to)
				c.closeSend()
			}
			continue
		}

		for id, c := range r.clients {
			if !c.trySend(ev.msg) {
				delete(r.clients, id)
				c.closeSend()
			}
		}
	}
}
