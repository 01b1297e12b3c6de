package models

import "time"

// ChatMessageTypeUser is the only message kind currently written.
const ChatMessageTypeUser = "user-message"

type ChatMessage struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	ActivityID string    `json:"activityId" bson:"activity_id"`
	UserID     string    `json:"userId" bson:"user_id"`
	UserName   string    `json:"userName" bson:"user_name"` // denormalized at write time
	Message    string    `json:"message" bson:"message"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Type       string    `json:"type" bson:"type"`
}
