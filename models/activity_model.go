package models

import "time"

const DefaultParticipantLimit = 10

type Activity struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	Title            string    `json:"title" bson:"title"`
	Description      string    `json:"description" bson:"description"`
	Location         string    `json:"location" bson:"location"`
	Time             time.Time `json:"time" bson:"time"`
	Category         string    `json:"category" bson:"category"`
	Tags             []string  `json:"tags" bson:"tags"`
	Creator          string    `json:"creator" bson:"creator"`
	Participants     []string  `json:"participants" bson:"participants"`
	ParticipantLimit int       `json:"participantLimit" bson:"participant_limit"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
}

// HasParticipant reports whether the user has joined the activity.
func (a *Activity) HasParticipant(userID string) bool {
	for _, id := range a.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Categories is the fixed activity category catalog. Not persisted and not
// user-extensible.
func Categories() []Category {
	return []Category{
		{Value: "dinner", Label: "Dinner", Icon: "🍽️"},
		{Value: "hiking", Label: "Hiking", Icon: "🏔️"},
		{Value: "coworking", Label: "Co-working", Icon: "💼"},
		{Value: "sightseeing", Label: "Sightseeing", Icon: "🏛️"},
		{Value: "sports", Label: "Sports", Icon: "⚽"},
		{Value: "cultural", Label: "Cultural", Icon: "🎭"},
		{Value: "nightlife", Label: "Nightlife", Icon: "🌙"},
		{Value: "outdoor", Label: "Outdoor", Icon: "🌲"},
		{Value: "indoor", Label: "Indoor", Icon: "🏠"},
		{Value: "other", Label: "Other", Icon: "📌"},
	}
}

// ValidCategory reports whether value is part of the fixed catalog.
func ValidCategory(value string) bool {
	for _, c := range Categories() {
		if c.Value == value {
			return true
		}
	}
	return false
}

// ActivityView is an activity enriched with display names for the creator and
// participants, denormalized at read time.
type ActivityView struct {
	Activity
	CreatorName      string   `json:"creatorName"`
	ParticipantNames []string `json:"participantNames"`
}
