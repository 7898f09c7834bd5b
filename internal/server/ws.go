package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"cyberarena/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients come from the game's own origin in dev
	},
}

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

// Connection is one client's transport. Events are queued on send and
// written by the write pump; a full queue drops the frame rather than
// stalling the whole arena.
type Connection struct {
	conn  *websocket.Conn
	send  chan []byte
	arena *Arena
}

func newConnection(conn *websocket.Conn, arena *Arena) *Connection {
	return &Connection{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		arena: arena,
	}
}

func (c *Connection) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full, dropping frame")
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.arena.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read: %v", err)
			}
			return
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			log.Printf("[ws] dropping command frame: %v", err)
			continue
		}
		c.arena.handleCommand(cmd)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One JSON object per text frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleWebSocket upgrades requests on the game endpoint and attaches the
// client to the arena.
func HandleWebSocket(arena *Arena) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ws] upgrade: %v", err)
			return
		}

		c := newConnection(conn, arena)
		arena.register(c)
		go c.writePump()
		go c.readPump()
	}
}
