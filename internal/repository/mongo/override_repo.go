package mongo

import (
	"context"
	"errors"
	"time"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const overrideCollectionName = "overrides"

// mongoOverrideRepository implements repository.OverrideRepository
type mongoOverrideRepository struct {
	collection *mongo.Collection
}

// NewMongoOverrideRepository creates a new Override repository.
func NewMongoOverrideRepository(db *mongo.Database) repository.OverrideRepository {
	return &mongoOverrideRepository{
		collection: db.Collection(overrideCollectionName),
	}
}

func dayScope(userID, planID primitive.ObjectID, date string) bson.M {
	return bson.M{
		"userId": userID,
		"planId": planID,
		"date":   date,
	}
}

// GetByID retrieves a single override row.
func (r *mongoOverrideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Override, error) {
	var override domain.Override
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&override)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &override, nil
}

// GetForDay returns the active overrides for (user, plan, date) in insertion
// order. The resolver relies on later rows superseding earlier ones per key.
func (r *mongoOverrideRepository) GetForDay(ctx context.Context, userID, planID primitive.ObjectID, date string) ([]domain.Override, error) {
	var overrides []domain.Override
	filter := dayScope(userID, planID, date)
	filter["isActive"] = true
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &overrides); err != nil {
		return nil, err
	}
	// Empty slice when the day has no customizations.
	return overrides, nil
}

// ReplaceForDay deletes every override for the day and inserts the staged
// set. Last writer wins in full; callers needing stronger guarantees must
// serialize per (user, plan, date) themselves.
func (r *mongoOverrideRepository) ReplaceForDay(ctx context.Context, userID, planID primitive.ObjectID, date string, overrides []domain.Override) error {
	if _, err := r.collection.DeleteMany(ctx, dayScope(userID, planID, date)); err != nil {
		return err
	}
	if len(overrides) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(overrides))
	for i := range overrides {
		overrides[i].ID = primitive.NewObjectID()
		overrides[i].UserID = userID
		overrides[i].PlanID = planID
		overrides[i].Date = date
		overrides[i].IsActive = true
		overrides[i].CreatedAt = now
		docs = append(docs, overrides[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// Create inserts a single override row.
func (r *mongoOverrideRepository) Create(ctx context.Context, override *domain.Override) (primitive.ObjectID, error) {
	if override.UserID == primitive.NilObjectID || override.PlanID == primitive.NilObjectID || override.Date == "" {
		return primitive.NilObjectID, errors.New("override requires userId, planId, and date")
	}
	override.ID = primitive.NewObjectID()
	override.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, override)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted override ID")
	}
	return insertedID, nil
}

// Deactivate logically deletes one override row.
func (r *mongoOverrideRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateForTemplateElement retires every active override keyed to the
// given template element for the day. Keeps the at-most-one-active-per-key
// construction intact when a new keyed row is about to be inserted.
func (r *mongoOverrideRepository) DeactivateForTemplateElement(ctx context.Context, userID, planID primitive.ObjectID, date string, templateElementID primitive.ObjectID) error {
	filter := dayScope(userID, planID, date)
	filter["templateElementId"] = templateElementID
	filter["isActive"] = true

	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isActive": false}})
	return err
}

// EnsureOverrideIndexes creates necessary indexes. Call during startup.
func EnsureOverrideIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The main query pattern: a day's overrides.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "planId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "templateElementId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
