package realtime

import (
	"log"
	"sync"

	"party-game-service/internal/domain"
)

const defaultBufferSize = 32

// GameRoom names the room every viewer of a game joins.
func GameRoom(gameID string) string { return "game:" + gameID }

// UserRoom names the implicit per-user room for direct notifications.
func UserRoom(userID string) string { return "user:" + userID }

// Presence records which rooms hold at least one socket. RoomActive is called on
// every join and on each refresh so leases outlive idle rooms. Implementations
// are best effort.
type Presence interface {
	RoomActive(room string)
	RoomClosed(room string)
}

// Client is one connected socket's mailbox.
type Client struct {
	UserID string
	send   chan domain.Event
	rooms  map[string]struct{}
}

// Events is drained by the connection writer. It is closed on Unregister.
func (c *Client) Events() <-chan domain.Event {
	return c.send
}

// deliver drops the oldest queued event when the mailbox is full.
func (c *Client) deliver(event domain.Event) bool {
	select {
	case c.send <- event:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Hub fans events out to the clients of a room. Membership lives only in memory.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	bufferSize int
	presence   Presence
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{rooms: make(map[string]map[*Client]struct{}), bufferSize: bufferSize}
}

// WithPresence mirrors room liveness into p.
func (h *Hub) WithPresence(p Presence) *Hub {
	h.presence = p
	return h
}

// Register creates a client already subscribed to its user room.
func (h *Hub) Register(userID string) *Client {
	c := &Client{
		UserID: userID,
		send:   make(chan domain.Event, h.bufferSize),
		rooms:  make(map[string]struct{}),
	}
	h.Join(c, UserRoom(userID))
	return c
}

// Unregister removes c from every room and closes its mailbox.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var closed []string
	for room := range c.rooms {
		if h.removeLocked(c, room) {
			closed = append(closed, room)
		}
	}
	close(c.send)
	h.mu.Unlock()

	for _, room := range closed {
		h.roomClosed(room)
	}
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	if h.presence != nil {
		h.presence.RoomActive(room)
	}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	closed := h.removeLocked(c, room)
	h.mu.Unlock()
	if closed {
		h.roomClosed(room)
	}
}

// InRoom reports whether c currently belongs to room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// Members counts this instance's clients in a room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// RefreshPresence re-marks every occupied room and returns how many it touched.
func (h *Hub) RefreshPresence() int {
	if h.presence == nil {
		return 0
	}
	h.mu.RLock()
	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.presence.RoomActive(room)
	}
	return len(rooms)
}

// Publish sends event to every client in room. Full mailboxes lose their oldest event.
func (h *Hub) Publish(room string, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if !c.deliver(event) {
			log.Printf("[broadcast] dropped %s for %s in %s", event.Name, c.UserID, room)
		}
	}
}

// Send queues event for a single client.
func (h *Hub) Send(c *Client, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := c.rooms[UserRoom(c.UserID)]; !live {
		return
	}
	c.deliver(event)
}

func (h *Hub) BroadcastToGame(gameID string, event domain.Event) {
	h.Publish(GameRoom(gameID), event)
}

func (h *Hub) NotifyUser(userID string, event domain.Event) {
	h.Publish(UserRoom(userID), event)
}

func (h *Hub) removeLocked(c *Client, room string) bool {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		return true
	}
	return false
}

func (h *Hub) roomClosed(room string) {
	if h.presence != nil {
		h.presence.RoomClosed(room)
	}
}
