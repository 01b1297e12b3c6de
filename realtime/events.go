package realtime

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinUserRoom  = "join-user-room"
	EventJoinActivity  = "join-activity"
	EventLeaveActivity = "leave-activity"
	EventSendMessage   = "send-message"
)

// Server-to-client event names.
const (
	EventNewNotification = "new-notification"
	EventNewMessage      = "new-message"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
)

// Event is the wire envelope for both directions of the socket channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope, marshalling data. Marshal failures are
// programming errors on our own payload types and yield an empty data field.
func NewEvent(name string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{Name: name}
	}
	return Event{Name: name, Data: raw}
}

// UserRoom is the per-user notification room key.
func UserRoom(userID string) string {
	return "user-" + userID
}

// ActivityRoom is the per-activity chat room key.
func ActivityRoom(activityID string) string {
	return "activity-" + activityID
}

// MessagePayload is broadcast to an activity room for chat messages. ID and
// ActivityID are empty for relayed messages that were never persisted.
type MessagePayload struct {
	ID         string `json:"id,omitempty"`
	ActivityID string `json:"activityId,omitempty"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
}

// PresencePayload is broadcast to an activity room on join/leave.
type PresencePayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Message  string `json:"message"`
}

// NotificationPayload is pushed to a user room when a notification is created.
type NotificationPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}
