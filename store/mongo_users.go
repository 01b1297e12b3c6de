package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelbuddy-server/models"
)

type mongoUsers struct {
	collection *mongo.Collection
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *mongoUsers) Insert(ctx context.Context, user *models.User) (string, error) {
	result, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		return "", err
	}
	user.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return user.ID, nil
}

func (s *mongoUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *mongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoUsers) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

func (s *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUsers) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Interests != nil {
		set["interests"] = *patch.Interests
	}
	if patch.ProfilePicture != nil {
		set["profile_picture"] = *patch.ProfilePicture
	}
	if patch.IsPublic != nil {
		set["is_public"] = *patch.IsPublic
	}
	if patch.Coordinates != nil {
		set["coordinates"] = *patch.Coordinates
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var user models.User
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUsers) SetLastActive(ctx context.Context, id string, t time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_active": t}})
	return err
}

func (s *mongoUsers) Search(ctx context.Context, q SearchQuery) ([]models.User, error) {
	filter := bson.M{}
	if q.ExcludeID != "" {
		if oid, err := objectID(q.ExcludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}
	if q.Q != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": q.Q, "$options": "i"}},
			bson.M{"bio": bson.M{"$regex": q.Q, "$options": "i"}},
		}
	}
	if q.Location != "" {
		filter["location"] = bson.M{"$regex": q.Location, "$options": "i"}
	}
	if len(q.Interests) > 0 {
		filter["interests"] = bson.M{"$in": q.Interests}
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return s.findAll(ctx, filter, opts)
}

func (s *mongoUsers) ListOthers(ctx context.Context, excludeID string) ([]models.User, error) {
	filter := bson.M{}
	if oid, err := objectID(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	return s.findAll(ctx, filter, options.Find())
}

func (s *mongoUsers) Recommendations(ctx context.Context, forUser *models.User, limit int64) ([]models.User, error) {
	oid, err := objectID(forUser.ID)
	if err != nil {
		return nil, err
	}
	excluded := bson.A{oid}
	for _, id := range forUser.Following {
		if fid, err := primitive.ObjectIDFromHex(id); err == nil {
			excluded = append(excluded, fid)
		}
	}
	filter := bson.M{
		"_id":       bson.M{"$nin": excluded},
		"interests": bson.M{"$in": forUser.Interests},
		"is_public": true,
	}
	return s.findAll(ctx, filter, options.Find().SetLimit(limit))
}

func (s *mongoUsers) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *mongoUsers) AddFollowing(ctx context.Context, userID, targetID string) error {
	return s.updateSet(ctx, userID, "$addToSet", "following", targetID)
}

func (s *mongoUsers) RemoveFollowing(ctx context.Context, userID, targetID string) error {
	return s.updateSet(ctx, userID, "$pull", "following", targetID)
}

func (s *mongoUsers) AddFollower(ctx context.Context, userID, followerID string) error {
	return s.updateSet(ctx, userID, "$addToSet", "followers", followerID)
}

func (s *mongoUsers) RemoveFollower(ctx context.Context, userID, followerID string) error {
	return s.updateSet(ctx, userID, "$pull", "followers", followerID)
}

func (s *mongoUsers) updateSet(ctx context.Context, userID, op, field, value string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{op: bson.M{field: value}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
