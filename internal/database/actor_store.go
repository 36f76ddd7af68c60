// internal/database/actor_store.go
package database

import (
	"context"
	"errors"
	"regexp"

	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActorStore implements donation.ActorRegistry on the "actors" collection.
type ActorStore struct {
	collection *mongo.Collection
}

func NewActorStore(db *mongo.Database) *ActorStore {
	return &ActorStore{collection: db.Collection(actorsCollection)}
}

func (s *ActorStore) Create(ctx context.Context, a models.Actor) error {
	_, err := s.collection.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return donation.ErrDuplicateEmail
	}
	return err
}

func (s *ActorStore) Get(ctx context.Context, id string) (models.Actor, error) {
	var a models.Actor
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Actor{}, donation.ErrNotFound
	}
	return a, err
}

func (s *ActorStore) FindByEmail(ctx context.Context, email string) (models.Actor, error) {
	var a models.Actor
	filter := bson.M{"email": bson.M{"$regex": "^" + regexp.QuoteMeta(email) + "$", "$options": "i"}}
	err := s.collection.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Actor{}, donation.ErrNotFound
	}
	return a, err
}

func (s *ActorStore) List(ctx context.Context) ([]models.Actor, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var actors []models.Actor
	if err = cursor.All(ctx, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

func (s *ActorStore) Exists(ctx context.Context, id string, role models.Role) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id, "role": role})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ActorStore) LocationOf(ctx context.Context, id string) (*models.Coordinate, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Location, nil
}
