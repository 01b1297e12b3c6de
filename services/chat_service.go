package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"travelbuddy-server/models"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

const chatHistoryLimit = 100

type ChatService struct {
	chats      store.ChatStore
	activities store.ActivityStore
	users      store.UserStore
}

func NewChatService(chats store.ChatStore, activities store.ActivityStore, users store.UserStore) *ChatService {
	return &ChatService{chats: chats, activities: activities, users: users}
}

// History returns an activity's messages in ascending timestamp order, capped
// at the most recent 100.
func (s *ChatService) History(ctx context.Context, activityID string) ([]models.ChatMessage, error) {
	messages, err := s.chats.ListByActivity(ctx, activityID, chatHistoryLimit)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load messages", http.StatusInternalServerError)
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// Post persists one message, denormalizing the sender's display name at write
// time. Messages are append-only.
func (s *ChatService) Post(ctx context.Context, activityID, userID, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.BadRequest("Message is required.")
	}

	if _, err := s.activities.GetByID(ctx, activityID); err == store.ErrNotFound {
		return nil, errors.NotFound("Activity not found.")
	} else if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load activity", http.StatusInternalServerError)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	msg := &models.ChatMessage{
		ActivityID: activityID,
		UserID:     userID,
		UserName:   user.Name,
		Message:    text,
		Timestamp:  time.Now().UTC(),
		Type:       models.ChatMessageTypeUser,
	}
	if _, err := s.chats.Insert(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to save message", http.StatusInternalServerError)
	}
	return msg, nil
}
