package store

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelbuddy-server/models"
)

type mongoChats struct {
	collection *mongo.Collection
}

func (s *mongoChats) Insert(ctx context.Context, msg *models.ChatMessage) (string, error) {
	result, err := s.collection.InsertOne(ctx, msg)
	if err != nil {
		return "", err
	}
	msg.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return msg.ID, nil
}

// ListByActivity fetches the newest limit messages, then reverses so the
// caller always sees ascending timestamps.
func (s *mongoChats) ListByActivity(ctx context.Context, activityID string, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{"activity_id": activityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}
