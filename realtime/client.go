package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"travelbuddy-server/middleware"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool // guarded by hub.mu
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware on the REST
	// surface; the socket authenticates with the same bearer token instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request to a websocket connection. The
// bearer token is carried in the query string because browsers cannot set
// headers on websocket dials.
func ServeWS(hub *Hub, tokens middleware.TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := tokens.Verify(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Websocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			id:     uuid.New().String(),
			userID: userID,
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			rooms:  make(map[string]bool),
		}

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		close(c.send)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error for client %s: %v", c.id, err)
			}
			return
		}
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Name {
	case EventJoinUserRoom:
		// The room key comes from the verified token, never the payload.
		c.hub.Subscribe(c, UserRoom(c.userID))

	case EventJoinActivity:
		var data struct {
			ActivityID string `json:"activityId"`
			UserName   string `json:"userName"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ActivityID == "" {
			return
		}
		room := ActivityRoom(data.ActivityID)
		c.hub.Subscribe(c, room)
		c.hub.PublishExcept(room, c, NewEvent(EventUserJoined, PresencePayload{
			UserID:   c.userID,
			UserName: data.UserName,
			Message:  data.UserName + " joined the chat",
		}))

	case EventLeaveActivity:
		var data struct {
			ActivityID string `json:"activityId"`
			UserName   string `json:"userName"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ActivityID == "" {
			return
		}
		room := ActivityRoom(data.ActivityID)
		c.hub.PublishExcept(room, c, NewEvent(EventUserLeft, PresencePayload{
			UserID:   c.userID,
			UserName: data.UserName,
			Message:  data.UserName + " left the chat",
		}))
		c.hub.Unsubscribe(c, room)

	case EventSendMessage:
		var data struct {
			ActivityID string `json:"activityId"`
			UserName   string `json:"userName"`
			Message    string `json:"message"`
			Timestamp  string `json:"timestamp"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ActivityID == "" {
			return
		}
		if data.Timestamp == "" {
			data.Timestamp = time.Now().UTC().Format(time.RFC3339)
		}
		// Relay only: persistence happens through the chat REST endpoint.
		c.hub.Publish(ActivityRoom(data.ActivityID), NewEvent(EventNewMessage, MessagePayload{
			UserID:    c.userID,
			UserName:  data.UserName,
			Message:   data.Message,
			Timestamp: data.Timestamp,
			Type:      "user-message",
		}))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
