package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"travelbuddy-server/models"
	"travelbuddy-server/realtime"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

const notificationListLimit = 50

type NotificationService struct {
	notifications store.NotificationStore
	broker        realtime.Broker
}

func NewNotificationService(notifications store.NotificationStore, broker realtime.Broker) *NotificationService {
	return &NotificationService{notifications: notifications, broker: broker}
}

// Notify persists a notification and pushes it to the recipient's user room.
// Notifications are side effects of other mutations, so failures are logged
// and never fail the triggering request.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	n.IsRead = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.notifications.Insert(ctx, n); err != nil {
		log.Printf("Failed to create %s notification for %s: %v", n.Type, n.Recipient, err)
		return
	}

	s.broker.Publish(realtime.UserRoom(n.Recipient), realtime.NewEvent(realtime.EventNewNotification, realtime.NotificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}))
}

// List returns the recipient's notifications, newest first, capped at 50.
func (s *NotificationService) List(ctx context.Context, recipient string) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByRecipient(ctx, recipient, notificationListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load notifications", http.StatusInternalServerError)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, recipient)
	if err != nil {
		return 0, errors.Wrap(err, "DB_ERROR", "Failed to count notifications", http.StatusInternalServerError)
	}
	return count, nil
}

// MarkRead flips a single notification to read. Ids not owned by the caller
// read as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipient string) (*models.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, recipient)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("Notification not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update notification", http.StatusInternalServerError)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) error {
	if err := s.notifications.MarkAllRead(ctx, recipient); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to update notifications", http.StatusInternalServerError)
	}
	return nil
}
