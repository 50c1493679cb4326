package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

var ErrRoomForbidden = errors.New("not allowed to join this room")

// clientCommand is what a connected client may send upstream: room
// subscription management only, all domain writes go through HTTP.
type clientCommand struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	rooms  map[string]bool

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		rooms:  make(map[string]bool),
	}
}

// Start launches the read and write pumps, tracked by the hub so Shutdown
// waits for both to finish.
func (c *Client) Start() {
	c.hub.wg.Add(2)
	go c.writePump()
	go c.readPump()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) readPump() {
	defer func() {
		c.hub.requestUnregister(c)
		c.conn.Close()
		c.hub.wg.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error for user %s: %v", c.userID, err)
			}
			break
		}

		c.handleCommand(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.wg.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued events into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

func (c *Client) handleCommand(data []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.sendError("", "invalid command")
		return
	}

	switch cmd.Action {
	case "subscribe":
		if err := c.hub.Subscribe(c, cmd.Room); err != nil {
			c.sendError(cmd.Room, err.Error())
			return
		}
		c.sendAck("subscribed", cmd.Room)

	case "unsubscribe":
		c.hub.Unsubscribe(c, cmd.Room)
		c.sendAck("unsubscribed", cmd.Room)

	default:
		c.sendError(cmd.Room, "unknown action: "+cmd.Action)
	}
}

func (c *Client) sendAck(action, room string) {
	c.enqueue(Event{Room: room, Type: action, Timestamp: time.Now()})
}

func (c *Client) sendError(room, message string) {
	payload, _ := json.Marshal(map[string]string{"error": message})
	c.enqueue(Event{Room: room, Type: "error", Payload: payload, Timestamp: time.Now()})
}

func (c *Client) enqueue(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
