package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelbuddy-server/models"
)

type mongoActivities struct {
	collection *mongo.Collection
}

func (s *mongoActivities) Insert(ctx context.Context, activity *models.Activity) (string, error) {
	result, err := s.collection.InsertOne(ctx, activity)
	if err != nil {
		return "", err
	}
	activity.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return activity.ID, nil
}

func (s *mongoActivities) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var activity models.Activity
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&activity)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *mongoActivities) List(ctx context.Context) ([]models.Activity, error) {
	return s.findAll(ctx, bson.M{})
}

func (s *mongoActivities) Search(ctx context.Context, q, category string) ([]models.Activity, error) {
	filter := bson.M{}
	if q != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": q, "$options": "i"}},
			bson.M{"location": bson.M{"$regex": q, "$options": "i"}},
			bson.M{"tags": bson.M{"$regex": q, "$options": "i"}},
		}
	}
	if category != "" && category != "all" {
		filter["category"] = category
	}
	return s.findAll(ctx, filter)
}

func (s *mongoActivities) ListByCreator(ctx context.Context, userID string) ([]models.Activity, error) {
	return s.findAll(ctx, bson.M{"creator": userID})
}

func (s *mongoActivities) ListJoined(ctx context.Context, userID string) ([]models.Activity, error) {
	return s.findAll(ctx, bson.M{
		"participants": userID,
		"creator":      bson.M{"$ne": userID},
	})
}

func (s *mongoActivities) findAll(ctx context.Context, filter bson.M) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var activities []models.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Join is a single guarded update: the filter re-checks membership and
// capacity so the participant limit holds even under concurrent joins.
func (s *mongoActivities) Join(ctx context.Context, activityID, userID string) (bool, error) {
	oid, err := objectID(activityID)
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"_id":          oid,
		"participants": bson.M{"$ne": userID},
		"$expr":        bson.M{"$lt": bson.A{bson.M{"$size": "$participants"}, "$participant_limit"}},
	}
	result, err := s.collection.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"participants": userID}})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (s *mongoActivities) RemoveParticipant(ctx context.Context, activityID, userID string) error {
	oid, err := objectID(activityID)
	if err != nil {
		return err
	}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"participants": userID}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoActivities) Update(ctx context.Context, id string, patch ActivityPatch) (*models.Activity, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Time != nil {
		set["time"] = *patch.Time
	}
	if patch.ParticipantLimit != nil {
		set["participant_limit"] = *patch.ParticipantLimit
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var activity models.Activity
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&activity)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *mongoActivities) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
