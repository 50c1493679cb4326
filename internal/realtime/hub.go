package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is the envelope pushed to subscribers of a room.
type Event struct {
	Room      string          `json:"room"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type broadcastMessage struct {
	room string
	data []byte
}

// RoomAuthorizer decides whether a user may subscribe to a room. Personal
// rooms ("user:{id}") are handled by the hub itself.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, roomID string) (bool, error)
}

// Hub maintains active websocket connections and their room subscriptions.
type Hub struct {
	clients  map[*Client]bool
	rooms    map[string]map[*Client]bool
	mux      sync.RWMutex

	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client

	authorizer RoomAuthorizer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(authorizer RoomAuthorizer) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan broadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		authorizer: authorizer,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	defer h.cleanup()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			return
		}
	}
}

// Publish fans an event out to every subscriber of the room. Delivery is
// best-effort: slow clients are dropped, nothing blocks the caller.
func (h *Hub) Publish(roomID, event string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ failed to marshal %s event: %v", event, err)
		return
	}

	data, err := json.Marshal(Event{
		Room:      roomID,
		Type:      event,
		Payload:   raw,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- broadcastMessage{room: roomID, data: data}:
	case <-h.ctx.Done():
	default:
		log.Printf("⚠️ broadcast queue full, dropping %s event for %s", event, roomID)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mux.Lock()
	defer h.mux.Unlock()

	h.clients[client] = true
	h.joinLocked(client, "user:"+client.userID)

	log.Printf("🔌 user %s connected (%d clients)", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mux.Lock()
	defer h.mux.Unlock()

	if _, exists := h.clients[client]; !exists {
		return
	}

	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	delete(h.clients, client)
	client.Close()

	log.Printf("🔌 user %s disconnected (%d clients)", client.userID, len(h.clients))
}

// Subscribe joins the client to roomID after an authorization check.
func (h *Hub) Subscribe(client *Client, roomID string) error {
	if roomID != "user:"+client.userID && h.authorizer != nil {
		ok, err := h.authorizer.CanJoin(h.ctx, client.userID, roomID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRoomForbidden
		}
	}

	h.mux.Lock()
	defer h.mux.Unlock()
	h.joinLocked(client, roomID)
	return nil
}

func (h *Hub) Unsubscribe(client *Client, roomID string) {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.leaveLocked(client, roomID)
}

func (h *Hub) joinLocked(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

func (h *Hub) deliver(msg broadcastMessage) {
	h.mux.RLock()
	defer h.mux.RUnlock()

	for client := range h.rooms[msg.room] {
		select {
		case client.send <- msg.data:
		default:
			// Slow consumer; drop the connection rather than block the hub.
			go h.requestUnregister(client)
		}
	}
}

// Register hands a new client to the hub loop. After shutdown the client is
// closed instead, which lets its pumps unwind.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		c.Close()
	}
}

// requestUnregister hands the client to the hub loop. Once the hub has shut
// down nothing drains the unregister channel anymore, so the send must not
// block; the client is torn down directly instead.
func (h *Hub) requestUnregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
		c.Close()
	}
}

func (h *Hub) cleanup() {
	h.mux.Lock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	h.mux.Unlock()

	h.wg.Wait()
}

func (h *Hub) Shutdown() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) ActiveConnections() int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.clients)
}
