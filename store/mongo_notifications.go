package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelbuddy-server/models"
)

type mongoNotifications struct {
	collection *mongo.Collection
}

func (s *mongoNotifications) Insert(ctx context.Context, n *models.Notification) (string, error) {
	result, err := s.collection.InsertOne(ctx, n)
	if err != nil {
		return "", err
	}
	n.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return n.ID, nil
}

func (s *mongoNotifications) ListByRecipient(ctx context.Context, recipient string, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *mongoNotifications) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false})
}

// MarkRead scopes the update to the recipient so a caller can never flip
// another user's notification; an unowned id reads as not found.
func (s *mongoNotifications) MarkRead(ctx context.Context, id, recipient string) (*models.Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var n models.Notification
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *mongoNotifications) MarkAllRead(ctx context.Context, recipient string) error {
	_, err := s.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	return err
}
