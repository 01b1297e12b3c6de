package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"travelbuddy-server/models"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

type ActivityService struct {
	activities    store.ActivityStore
	users         store.UserStore
	notifications *NotificationService
}

func NewActivityService(activities store.ActivityStore, users store.UserStore, notifications *NotificationService) *ActivityService {
	return &ActivityService{
		activities:    activities,
		users:         users,
		notifications: notifications,
	}
}

// CreateActivityInput carries the validated fields of a create request.
type CreateActivityInput struct {
	Title            string
	Description      string
	Location         string
	Time             time.Time
	Category         string
	Tags             []string
	ParticipantLimit int
}

// Create inserts a new activity with the creator as its first participant.
func (s *ActivityService) Create(ctx context.Context, creatorID string, input CreateActivityInput) (*models.ActivityView, error) {
	if !models.ValidCategory(input.Category) {
		return nil, errors.BadRequest("Invalid category.")
	}
	limit := input.ParticipantLimit
	if limit <= 0 {
		limit = models.DefaultParticipantLimit
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	activity := &models.Activity{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		Time:             input.Time,
		Category:         input.Category,
		Tags:             tags,
		Creator:          creatorID,
		Participants:     []string{creatorID},
		ParticipantLimit: limit,
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := s.activities.Insert(ctx, activity); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to create activity", http.StatusInternalServerError)
	}
	return s.view(ctx, activity), nil
}

// List returns all activities, newest first, enriched with display names.
func (s *ActivityService) List(ctx context.Context) ([]models.ActivityView, error) {
	activities, err := s.activities.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load activities", http.StatusInternalServerError)
	}
	return s.views(ctx, activities), nil
}

// Get returns one activity enriched with display names.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.ActivityView, error) {
	activity, err := s.getActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, activity), nil
}

// Search filters by title/location/tag substring and optional category.
func (s *ActivityService) Search(ctx context.Context, q, category string) ([]models.ActivityView, error) {
	if category != "" && category != "all" && !models.ValidCategory(category) {
		return nil, errors.BadRequest("Invalid category.")
	}
	activities, err := s.activities.Search(ctx, q, category)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Search failed", http.StatusInternalServerError)
	}
	return s.views(ctx, activities), nil
}

// Join adds the caller as a participant. The store-level join re-checks
// membership and capacity in a single guarded update, so the participant
// limit holds even when two joins race.
func (s *ActivityService) Join(ctx context.Context, activityID, userID string) error {
	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if activity.HasParticipant(userID) {
		return errors.BadRequest("Already joined.")
	}
	if len(activity.Participants) >= activity.ParticipantLimit {
		return errors.BadRequest("Activity is full.")
	}

	joined, err := s.activities.Join(ctx, activityID, userID)
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to join activity", http.StatusInternalServerError)
	}
	if !joined {
		// Lost the race on the capacity check.
		return errors.BadRequest("Activity is full.")
	}

	s.notifyCreator(ctx, activity, userID, models.NotificationActivityJoined,
		"New Participant", " has joined your activity: ")
	return nil
}

// Leave removes the caller from the participants. The creator can never leave
// their own activity.
func (s *ActivityService) Leave(ctx context.Context, activityID, userID string) error {
	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if !activity.HasParticipant(userID) {
		return errors.BadRequest("Not a participant.")
	}
	if activity.Creator == userID {
		return errors.BadRequest("Creator cannot leave their own activity.")
	}

	if err := s.activities.RemoveParticipant(ctx, activityID, userID); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to leave activity", http.StatusInternalServerError)
	}

	s.notifyCreator(ctx, activity, userID, models.NotificationActivityLeft,
		"Activity Left", " has left your activity: ")
	return nil
}

// RemoveParticipant lets the creator evict a participant.
func (s *ActivityService) RemoveParticipant(ctx context.Context, activityID, callerID, userID string) error {
	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if activity.Creator != callerID {
		return errors.Forbidden("Only the creator can remove participants.")
	}
	if userID == callerID {
		return errors.BadRequest("Creator cannot remove themselves.")
	}
	if !activity.HasParticipant(userID) {
		return errors.BadRequest("User is not a participant.")
	}
	if err := s.activities.RemoveParticipant(ctx, activityID, userID); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to remove participant", http.StatusInternalServerError)
	}
	return nil
}

// Update applies a creator-only partial patch.
func (s *ActivityService) Update(ctx context.Context, activityID, callerID string, patch store.ActivityPatch) (*models.ActivityView, error) {
	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity.Creator != callerID {
		return nil, errors.Forbidden("Only the creator can update this activity.")
	}

	updated, err := s.activities.Update(ctx, activityID, patch)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update activity", http.StatusInternalServerError)
	}
	return s.view(ctx, updated), nil
}

// Delete is creator-only and hard-deletes the document.
func (s *ActivityService) Delete(ctx context.Context, activityID, callerID string) error {
	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if activity.Creator != callerID {
		return errors.Forbidden("Only the creator can delete this activity.")
	}
	if err := s.activities.Delete(ctx, activityID); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete activity", http.StatusInternalServerError)
	}
	return nil
}

// ActivityPartition splits a user's activities into created and
// joined-but-not-created sets.
type ActivityPartition struct {
	Created []models.ActivityView `json:"created"`
	Joined  []models.ActivityView `json:"joined"`
}

// ForUser partitions the given user's activities.
func (s *ActivityService) ForUser(ctx context.Context, userID string) (*ActivityPartition, error) {
	created, err := s.activities.ListByCreator(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load activities", http.StatusInternalServerError)
	}
	joined, err := s.activities.ListJoined(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load activities", http.StatusInternalServerError)
	}
	return &ActivityPartition{
		Created: s.views(ctx, created),
		Joined:  s.views(ctx, joined),
	}, nil
}

func (s *ActivityService) getActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("Activity not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load activity", http.StatusInternalServerError)
	}
	return activity, nil
}

func (s *ActivityService) notifyCreator(ctx context.Context, activity *models.Activity, actorID, notificationType, title, verb string) {
	if activity.Creator == actorID {
		return
	}
	actorName := "Someone"
	if actor, err := s.users.GetByID(ctx, actorID); err == nil {
		actorName = actor.Name
	}
	s.notifications.Notify(ctx, &models.Notification{
		Recipient:  activity.Creator,
		Sender:     actorID,
		ActivityID: activity.ID,
		Type:       notificationType,
		Title:      title,
		Message:    actorName + verb + activity.Title,
	})
}

// view enriches an activity with display names, memoizing lookups across the
// creator and participants.
func (s *ActivityService) view(ctx context.Context, activity *models.Activity) *models.ActivityView {
	names := make(map[string]string, len(activity.Participants)+1)
	lookup := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := ""
		if user, err := s.users.GetByID(ctx, id); err == nil {
			name = user.Name
		} else {
			log.Printf("Dangling user reference %s on activity %s", id, activity.ID)
		}
		names[id] = name
		return name
	}

	view := &models.ActivityView{
		Activity:         *activity,
		CreatorName:      lookup(activity.Creator),
		ParticipantNames: make([]string, 0, len(activity.Participants)),
	}
	for _, id := range activity.Participants {
		view.ParticipantNames = append(view.ParticipantNames, lookup(id))
	}
	return view
}

func (s *ActivityService) views(ctx context.Context, activities []models.Activity) []models.ActivityView {
	out := make([]models.ActivityView, 0, len(activities))
	for i := range activities {
		out = append(out, *s.view(ctx, &activities[i]))
	}
	return out
}
