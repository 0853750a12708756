package main

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket connection. Its id doubles as the player id for
// the lifetime of the connection; there is no reconnection or resume.
type client struct {
	conn *websocket.Conn
	id   string

	// room is set once on create/join and read only by this connection's
	// readPump.
	room *Room

	// mu serializes sends against channel closure: room delivery and the
	// reaper drop clients from under the room lock while reply sends from
	// the read loop.
	mu     sync.Mutex
	send   chan any
	closed bool
}

// trySend queues a message without blocking. It reports false when the
// channel is full or already closed.
func (c *client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend shuts down the write pump. Safe to call more than once.
func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// serveWS upgrades a connection and runs its read loop. Each inbound event
// is translated into an engine call; engine errors go back to this
// connection only.
func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		c := &client{
			conn: conn,
			send: make(chan any, 8),
			id:   uuid.NewString(),
		}

		logf(cfg, "WS: Connection %s from %s", c.id, realIP(r))

		go c.writePump()
		c.readPump(cfg, reg)
	}
}

func (c *client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if c.room != nil {
			reg.RemovePlayer(c.room, c.id)
			logf(cfg, "WS: Connection %s left room %s", c.id, c.room.code)
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handle(cfg, reg, msg)
	}
}

func (c *client) handle(cfg *Config, reg *Registry, msg ClientMessage) {
	switch msg.Type {
	case "create_room":
		if c.room != nil {
			c.reply(errorMessage(errAlreadyInRoom))
			return
		}
		room, _, err := reg.CreateRoom(msg.Name, c.id, c)
		if err != nil {
			c.reply(errorMessage(err))
			return
		}
		c.room = room
		logf(cfg, "ROOMS: %q created room %s", msg.Name, room.code)

	case "join_room":
		if c.room != nil {
			c.reply(errorMessage(errAlreadyInRoom))
			return
		}
		room, _, err := reg.JoinRoom(msg.RoomCode, msg.Name, c.id, c)
		if err != nil {
			c.reply(errorMessage(err))
			return
		}
		c.room = room
		logf(cfg, "ROOMS: %q joined room %s", msg.Name, room.code)

	case "start_game":
		c.inRoom(func(room *Room) ([]outbound, error) {
			return room.StartGame(c.id)
		})

	case "night_action":
		c.inRoom(func(room *Room) ([]outbound, error) {
			return room.SubmitNightAction(c.id, msg.TargetID, msg.Action)
		})

	case "day_vote":
		c.inRoom(func(room *Room) ([]outbound, error) {
			return room.SubmitDayVote(c.id, msg.TargetID)
		})

	case "restart_game":
		c.inRoom(func(room *Room) ([]outbound, error) {
			return room.Restart(c.id)
		})

	default:
		// ignore unknown types
	}
}

// inRoom runs an engine call for a connection that has already joined a
// room, reporting failures back to the caller alone.
func (c *client) inRoom(fn func(*Room) ([]outbound, error)) {
	if c.room == nil {
		c.reply(errorMessage(errRoomNotFound))
		return
	}
	if _, err := fn(c.room); err != nil {
		c.reply(errorMessage(err))
	}
}

// reply queues a message for this connection only, outside any room.
func (c *client) reply(msg any) {
	c.trySend(msg)
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
