package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelbuddy-server/models"
)

// ErrNotFound is returned by all stores when no document matches.
var ErrNotFound = errors.New("store: not found")

// ProfilePatch is a partial update of a user's mutable profile fields.
// Credential changes are not representable here.
type ProfilePatch struct {
	Name           *string
	Bio            *string
	Location       *string
	Interests      *[]string
	ProfilePicture *string
	IsPublic       *bool
	Coordinates    *models.GeoPoint
}

// ActivityPatch is a partial update of an activity's creator-mutable fields.
type ActivityPatch struct {
	Title            *string
	Description      *string
	Location         *string
	Time             *time.Time
	ParticipantLimit *int
}

// SearchQuery narrows a user search. All set criteria are ANDed.
type SearchQuery struct {
	ExcludeID string
	Q         string   // case-insensitive substring over name and bio
	Location  string   // case-insensitive substring
	Interests []string // match any
	Limit     int64
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User) (string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error)
	SetLastActive(ctx context.Context, id string, t time.Time) error
	Search(ctx context.Context, q SearchQuery) ([]models.User, error)
	ListOthers(ctx context.Context, excludeID string) ([]models.User, error)
	Recommendations(ctx context.Context, forUser *models.User, limit int64) ([]models.User, error)
	AddFollowing(ctx context.Context, userID, targetID string) error
	RemoveFollowing(ctx context.Context, userID, targetID string) error
	AddFollower(ctx context.Context, userID, followerID string) error
	RemoveFollower(ctx context.Context, userID, followerID string) error
}

type ActivityStore interface {
	Insert(ctx context.Context, activity *models.Activity) (string, error)
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context) ([]models.Activity, error)
	Search(ctx context.Context, q, category string) ([]models.Activity, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Activity, error)
	ListJoined(ctx context.Context, userID string) ([]models.Activity, error)
	// Join adds the user if and only if they are not yet a participant and
	// the participant limit is not reached, as a single guarded update.
	Join(ctx context.Context, activityID, userID string) (bool, error)
	RemoveParticipant(ctx context.Context, activityID, userID string) error
	Update(ctx context.Context, id string, patch ActivityPatch) (*models.Activity, error)
	Delete(ctx context.Context, id string) error
}

type ChatStore interface {
	Insert(ctx context.Context, msg *models.ChatMessage) (string, error)
	// ListByActivity returns the most recent limit messages in ascending
	// timestamp order.
	ListByActivity(ctx context.Context, activityID string, limit int64) ([]models.ChatMessage, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) (string, error)
	ListByRecipient(ctx context.Context, recipient string, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, id, recipient string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) error
}

// Mongo owns the process-wide document store connection, acquired once at
// startup and shared by all stores.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database

	Users         UserStore
	Activities    ActivityStore
	Chats         ChatStore
	Notifications NotificationStore
}

func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	log.Println("Connected to MongoDB")

	db := client.Database(dbName)
	m := &Mongo{
		client:        client,
		db:            db,
		Users:         &mongoUsers{collection: db.Collection("users")},
		Activities:    &mongoActivities{collection: db.Collection("activities")},
		Chats:         &mongoChats{collection: db.Collection("chat_messages")},
		Notifications: &mongoNotifications{collection: db.Collection("notifications")},
	}
	m.ensureIndexes(ctx)
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes declares the unique email index and the geospatial index on
// user coordinates. Index failures are logged, not fatal: the nearby path has
// a scan fallback and duplicate emails are also checked at registration.
func (m *Mongo) ensureIndexes(ctx context.Context) {
	users := m.db.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "coordinates", Value: "2dsphere"}},
		},
	})
	if err != nil {
		log.Printf("Failed to create user indexes: %v", err)
	}

	chats := m.db.Collection("chat_messages")
	_, err = chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "activity_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		log.Printf("Failed to create chat index: %v", err)
	}

	notifications := m.db.Collection("notifications")
	_, err = notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		log.Printf("Failed to create notification index: %v", err)
	}
}
