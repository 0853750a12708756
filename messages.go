package main

// Messages coming from clients
type ClientMessage struct {
	Type     string     `json:"type"`               // "create_room", "join_room", "start_game", "night_action", "day_vote", "restart_game"
	Name     string     `json:"name,omitempty"`     // create_room / join_room
	RoomCode string     `json:"roomCode,omitempty"` // join_room and all in-room events
	TargetID string     `json:"targetId,omitempty"`   // night_action / day_vote
	Action   ActionKind `json:"actionKind,omitempty"` // night_action: "kill", "investigate", "protect"
}

// RosterEntry is one row of the pre-game lobby roster. Alive is omitted
// before a game has started and roles are never included.
type RosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Alive  *bool  `json:"alive,omitempty"`
}

// PlayerView is one row of an in-game roster projection. Role is null for
// everyone except the recipient until the game ends.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Alive  bool   `json:"alive"`
	Role   *Role  `json:"role"`
}

type RoomCreatedMessage struct {
	Type     string `json:"type"` // "room_created"
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

type RoomJoinedMessage struct {
	Type     string `json:"type"` // "room_joined"
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

// Broadcast whenever the roster changes in the lobby or by disconnect.
type UpdatePlayersMessage struct {
	Type    string        `json:"type"` // "update_players"
	Players []RosterEntry `json:"players"`
}

type HostChangedMessage struct {
	Type      string `json:"type"` // "host_changed"
	NewHostID string `json:"newHostId"`
}

// Sent per recipient: each player learns only their own role.
type GameStartedMessage struct {
	Type      string       `json:"type"` // "game_started"
	Role      Role         `json:"role"`
	Players   []PlayerView `json:"players"`
	GameState GameState    `json:"gameState"`
}

type ActionRegisteredMessage struct {
	Type     string     `json:"type"` // "action_registered"
	Action   ActionKind `json:"actionKind"`
	TargetID string     `json:"targetId"`
}

// Unicast to the detective immediately on investigation.
type InvestigationResultMessage struct {
	Type       string `json:"type"` // "investigation_result"
	TargetName string `json:"targetName"`
	IsAssassin bool   `json:"isAssassin"`
}

type NightProcessedMessage struct {
	Type      string       `json:"type"` // "night_processed"
	Players   []PlayerView `json:"players"`
	GameState GameState    `json:"gameState"`
}

type VoteRegisteredMessage struct {
	Type     string `json:"type"` // "vote_registered"
	TargetID string `json:"targetId"`
}

// Broadcast after every vote so everyone watches the tally move.
type VoteUpdateMessage struct {
	Type      string         `json:"type"` // "vote_update"
	VoteCount map[string]int `json:"voteCount"`
}

type DayProcessedMessage struct {
	Type      string       `json:"type"` // "day_processed"
	Players   []PlayerView `json:"players"`
	GameState GameState    `json:"gameState"`
}

// Broadcast once a faction wins; every role becomes visible.
type GameEndedMessage struct {
	Type    string       `json:"type"` // "game_ended"
	Players []PlayerView `json:"players"`
	Winner  Winner       `json:"winner"`
	Message string       `json:"message"`
}

type GameRestartedMessage struct {
	Type      string        `json:"type"` // "game_restarted"
	Players   []RosterEntry `json:"players"`
	GameState GameState     `json:"gameState"`
}

// ErrorMessage is unicast to the offending connection and is never fatal.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: "error", Message: err.Error()}
}

const (
	winnerMessageAssassins = "The Assassins have won! They eliminated enough citizens to take over the town."
	winnerMessageCitizens  = "The Citizens have won! All of the Assassins were eliminated."
	dawnMessage            = "Dawn breaks over the town..."
	nightfallMessage       = "Night falls over the town..."
)

func winnerMessage(w Winner) string {
	if w == WinnerAssassins {
		return winnerMessageAssassins
	}
	return winnerMessageCitizens
}
