// internal/database/donation_store.go
package database

import (
	"context"
	"errors"

	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DonationStore implements donation.Store on the "donations" collection.
type DonationStore struct {
	collection *mongo.Collection
}

func NewDonationStore(db *mongo.Database) *DonationStore {
	return &DonationStore{collection: db.Collection(donationsCollection)}
}

func (s *DonationStore) Insert(ctx context.Context, d models.Donation) error {
	_, err := s.collection.InsertOne(ctx, d)
	return err
}

func (s *DonationStore) GetByID(ctx context.Context, id string) (models.Donation, error) {
	var d models.Donation
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Donation{}, donation.ErrNotFound
	}
	return d, err
}

// UpdateStatusAndAssignee chỉ cập nhật nếu status vẫn là expected ("ai nhanh hơn" thắng).
// A single-document update is atomic, so the status and the assignee land together or not at all.
func (s *DonationStore) UpdateStatusAndAssignee(ctx context.Context, id string, expected, next models.DonationStatus, field donation.AssigneeField, assigneeID string) (models.Donation, error) {
	set := bson.M{"status": next}
	switch field {
	case donation.AssignBroker:
		set["brokerId"] = assigneeID
	case donation.AssignCarrier:
		set["carrierId"] = assigneeID
	}

	atomicFilter := bson.M{"_id": id, "status": expected}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Donation
	err := s.collection.FindOneAndUpdate(ctx, atomicFilter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Donation{}, err
	}

	// Nothing matched: either the donation is gone or someone moved it first.
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Donation{}, err
	}
	return current, donation.ErrStatusMismatch
}

func (s *DonationStore) SetPhotoURL(ctx context.Context, id, url string) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photoUrl": url}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return donation.ErrNotFound
	}
	return nil
}

func (s *DonationStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return donation.ErrNotFound
	}
	return nil
}

func (s *DonationStore) ListByFilter(ctx context.Context, f donation.Filter) ([]models.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection.Find(ctx, filterDocument(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var donations []models.Donation
	if err = cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	return donations, nil
}

// filterDocument translates a donation.Filter into a MongoDB query.
func filterDocument(f donation.Filter) bson.M {
	filter := bson.M{}
	if f.SourceID != "" {
		filter["sourceId"] = f.SourceID
	}
	if f.BrokerID != "" {
		filter["brokerId"] = f.BrokerID
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		filter["status"] = f.Statuses[0]
	default:
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Variety != "" {
		filter["attributes.variety"] = f.Variety
	}
	if f.Category != "" {
		filter["attributes.category"] = f.Category
	}
	if f.MinQuantity > 0 {
		filter["attributes.quantity.value"] = bson.M{"$gte": f.MinQuantity}
	}
	return filter
}
