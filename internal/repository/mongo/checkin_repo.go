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

const checkinCollectionName = "checkins"

// mongoCheckinRepository implements repository.CheckinRepository
type mongoCheckinRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckinRepository creates a new Checkin repository.
func NewMongoCheckinRepository(db *mongo.Database) repository.CheckinRepository {
	return &mongoCheckinRepository{
		collection: db.Collection(checkinCollectionName),
	}
}

// Create inserts a new check-in metadata row.
func (r *mongoCheckinRepository) Create(ctx context.Context, checkin *domain.Checkin) (primitive.ObjectID, error) {
	if checkin.UserID == primitive.NilObjectID || checkin.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("checkin requires userId and object key")
	}
	checkin.ID = primitive.NewObjectID()
	checkin.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, checkin)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted checkin ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single check-in by id.
func (r *mongoCheckinRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Checkin, error) {
	var checkin domain.Checkin
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkin, nil
}

// GetByUserAndRange returns a user's check-ins between two dates, oldest first.
func (r *mongoCheckinRepository) GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Checkin, error) {
	var checkins []domain.Checkin
	filter := bson.M{
		"userId": userID,
		"date": bson.M{
			"$gte": from.UTC().Format("2006-01-02"),
			"$lte": to.UTC().Format("2006-01-02"),
		},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &checkins); err != nil {
		return nil, err
	}
	return checkins, nil
}

// EnsureCheckinIndexes creates necessary indexes. Call during startup.
func EnsureCheckinIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
