package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"travelbuddy-server/models"
)

// MemoryUsers is an in-memory UserStore used by tests.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]models.User)}
}

func (s *MemoryUsers) Insert(_ context.Context, user *models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = primitive.NewObjectID().Hex()
	s.users[user.ID] = *user
	return user.ID, nil
}

func (s *MemoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.GoogleID != "" && user.GoogleID == googleID {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) UpdateProfile(_ context.Context, id string, patch ProfilePatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Location != nil {
		user.Location = *patch.Location
	}
	if patch.Interests != nil {
		user.Interests = *patch.Interests
	}
	if patch.ProfilePicture != nil {
		user.ProfilePicture = *patch.ProfilePicture
	}
	if patch.IsPublic != nil {
		user.IsPublic = *patch.IsPublic
	}
	if patch.Coordinates != nil {
		user.Coordinates = *patch.Coordinates
	}
	s.users[id] = user
	return &user, nil
}

func (s *MemoryUsers) SetLastActive(_ context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastActive = t
	s.users[id] = user
	return nil
}

func (s *MemoryUsers) Search(_ context.Context, q SearchQuery) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, user := range s.users {
		if user.ID == q.ExcludeID {
			continue
		}
		if q.Q != "" && !containsFold(user.Name, q.Q) && !containsFold(user.Bio, q.Q) {
			continue
		}
		if q.Location != "" && !containsFold(user.Location, q.Location) {
			continue
		}
		if len(q.Interests) > 0 && !intersects(user.Interests, q.Interests) {
			continue
		}
		out = append(out, user)
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryUsers) ListOthers(_ context.Context, excludeID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, user := range s.users {
		if user.ID != excludeID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *MemoryUsers) Recommendations(_ context.Context, forUser *models.User, limit int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, user := range s.users {
		if user.ID == forUser.ID || !user.IsPublic {
			continue
		}
		if forUser.IsFollowing(user.ID) {
			continue
		}
		if !intersects(user.Interests, forUser.Interests) {
			continue
		}
		out = append(out, user)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryUsers) AddFollowing(_ context.Context, userID, targetID string) error {
	return s.mutate(userID, func(u *models.User) {
		u.Following = addToSet(u.Following, targetID)
	})
}

func (s *MemoryUsers) RemoveFollowing(_ context.Context, userID, targetID string) error {
	return s.mutate(userID, func(u *models.User) {
		u.Following = removeFromSet(u.Following, targetID)
	})
}

func (s *MemoryUsers) AddFollower(_ context.Context, userID, followerID string) error {
	return s.mutate(userID, func(u *models.User) {
		u.Followers = addToSet(u.Followers, followerID)
	})
}

func (s *MemoryUsers) RemoveFollower(_ context.Context, userID, followerID string) error {
	return s.mutate(userID, func(u *models.User) {
		u.Followers = removeFromSet(u.Followers, followerID)
	})
}

func (s *MemoryUsers) mutate(userID string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	fn(&user)
	s.users[userID] = user
	return nil
}

// MemoryActivities is an in-memory ActivityStore used by tests.
type MemoryActivities struct {
	mu         sync.RWMutex
	activities map[string]models.Activity
}

func NewMemoryActivities() *MemoryActivities {
	return &MemoryActivities{activities: make(map[string]models.Activity)}
}

func (s *MemoryActivities) Insert(_ context.Context, activity *models.Activity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity.ID = primitive.NewObjectID().Hex()
	s.activities[activity.ID] = *activity
	return activity.ID, nil
}

func (s *MemoryActivities) GetByID(_ context.Context, id string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &activity, nil
}

func (s *MemoryActivities) List(_ context.Context) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(models.Activity) bool { return true }), nil
}

func (s *MemoryActivities) Search(_ context.Context, q, category string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(a models.Activity) bool {
		if q != "" {
			match := containsFold(a.Title, q) || containsFold(a.Location, q)
			for _, tag := range a.Tags {
				if containsFold(tag, q) {
					match = true
				}
			}
			if !match {
				return false
			}
		}
		if category != "" && category != "all" && a.Category != category {
			return false
		}
		return true
	}), nil
}

func (s *MemoryActivities) ListByCreator(_ context.Context, userID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(a models.Activity) bool { return a.Creator == userID }), nil
}

func (s *MemoryActivities) ListJoined(_ context.Context, userID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(a models.Activity) bool {
		return a.Creator != userID && a.HasParticipant(userID)
	}), nil
}

func (s *MemoryActivities) collect(keep func(models.Activity) bool) []models.Activity {
	var out []models.Activity
	for _, a := range s.activities {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryActivities) Join(_ context.Context, activityID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, ok := s.activities[activityID]
	if !ok {
		return false, ErrNotFound
	}
	if activity.HasParticipant(userID) || len(activity.Participants) >= activity.ParticipantLimit {
		return false, nil
	}
	activity.Participants = append(activity.Participants, userID)
	s.activities[activityID] = activity
	return true, nil
}

func (s *MemoryActivities) RemoveParticipant(_ context.Context, activityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, ok := s.activities[activityID]
	if !ok {
		return ErrNotFound
	}
	activity.Participants = removeFromSet(activity.Participants, userID)
	s.activities[activityID] = activity
	return nil
}

func (s *MemoryActivities) Update(_ context.Context, id string, patch ActivityPatch) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		activity.Title = *patch.Title
	}
	if patch.Description != nil {
		activity.Description = *patch.Description
	}
	if patch.Location != nil {
		activity.Location = *patch.Location
	}
	if patch.Time != nil {
		activity.Time = *patch.Time
	}
	if patch.ParticipantLimit != nil {
		activity.ParticipantLimit = *patch.ParticipantLimit
	}
	s.activities[id] = activity
	return &activity, nil
}

func (s *MemoryActivities) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

// MemoryChats is an in-memory ChatStore used by tests.
type MemoryChats struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
}

func NewMemoryChats() *MemoryChats {
	return &MemoryChats{}
}

func (s *MemoryChats) Insert(_ context.Context, msg *models.ChatMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID().Hex()
	s.messages = append(s.messages, *msg)
	return msg.ID, nil
}

func (s *MemoryChats) ListByActivity(_ context.Context, activityID string, limit int64) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChatMessage
	for _, msg := range s.messages {
		if msg.ActivityID == activityID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

// MemoryNotifications is an in-memory NotificationStore used by tests.
type MemoryNotifications struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
}

func NewMemoryNotifications() *MemoryNotifications {
	return &MemoryNotifications{notifications: make(map[string]models.Notification)}
}

func (s *MemoryNotifications) Insert(_ context.Context, n *models.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = primitive.NewObjectID().Hex()
	s.notifications[n.ID] = *n
	return n.ID, nil
}

func (s *MemoryNotifications) ListByRecipient(_ context.Context, recipient string, limit int64) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryNotifications) CountUnread(_ context.Context, recipient string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.notifications {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotifications) MarkRead(_ context.Context, id, recipient string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return &n, nil
}

func (s *MemoryNotifications) MarkAllRead(_ context.Context, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
			s.notifications[id] = n
		}
	}
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func addToSet(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

// removeFromSet copies rather than compacting in place; callers hold slice
// headers over the same backing array.
func removeFromSet(set []string, value string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
