package models

import "time"

const (
	NotificationNewFollower     = "new_follower"
	NotificationNewParticipant  = "new_participant"
	NotificationActivityJoined  = "activity_joined"
	NotificationActivityLeft    = "activity_left"
	NotificationActivityUpdated = "activity_updated"
	NotificationReminder        = "activity_reminder"
	NotificationMessage         = "message_received"
)

type Notification struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Recipient  string    `json:"recipient" bson:"recipient"`
	Sender     string    `json:"sender,omitempty" bson:"sender,omitempty"`
	ActivityID string    `json:"activity,omitempty" bson:"activity,omitempty"`
	Type       string    `json:"type" bson:"type"`
	Title      string    `json:"title" bson:"title"`
	Message    string    `json:"message" bson:"message"`
	IsRead     bool      `json:"isRead" bson:"is_read"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}
