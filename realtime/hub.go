package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Broker groups connections into named rooms and relays events to every
// connection in a room. Handlers and services depend on this interface only,
// so the in-process hub could be swapped for a distributed transport.
type Broker interface {
	Subscribe(c *Client, room string)
	Unsubscribe(c *Client, room string)
	Publish(room string, event Event)
}

// Hub is the in-process Broker. Rooms are an in-memory registry; a
// disconnecting client is simply removed from its rooms. No delivery
// guarantee, no replay on reconnect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

func (h *Hub) Subscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

func (h *Hub) Unsubscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

// Publish relays an event to every client in the room, including the sender.
func (h *Hub) Publish(room string, event Event) {
	h.broadcast(room, event, nil)
}

// PublishExcept relays an event to every client in the room except one; used
// for presence events where the joining or leaving socket already knows.
func (h *Hub) PublishExcept(room string, except *Client, event Event) {
	h.broadcast(room, event, except)
}

func (h *Hub) broadcast(room string, event Event, except *Client) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event.Name, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop rather than block the broadcast.
		}
	}
}

// remove detaches the client from all of its rooms on disconnect.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.removeLocked(c, room)
	}
}

func (h *Hub) removeLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// RoomSize reports the number of connections in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
