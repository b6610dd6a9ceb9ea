package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoLoyaltyRepository struct {
	collection *mongo.Collection
}

func NewMongoLoyaltyRepository(db *mongo.Database) LoyaltyRepository {
	return &mongoLoyaltyRepository{
		collection: db.Collection(loyaltyCollection),
	}
}

func (m *mongoLoyaltyRepository) GetProfile(ctx context.Context, userID string) (*domain.LoyaltyProfile, error) {
	var profile domain.LoyaltyProfile

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLoyaltyNotFound
		}
		return nil, fmt.Errorf("failed to get loyalty profile: %w", err)
	}

	return &profile, nil
}

func (m *mongoLoyaltyRepository) AddPoints(ctx context.Context, userID string, points int) (*domain.LoyaltyProfile, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$inc": bson.M{"total_points": points},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"tier":       domain.TierStandard,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before domain.LoyaltyProfile
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err != nil {
		// Upsert inserted a new profile, there is no pre-image.
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to add loyalty points: %w", err)
	}

	return &before, nil
}

func (m *mongoLoyaltyRepository) SetTier(ctx context.Context, userID string, expectedPoints int, tier domain.Tier) (bool, error) {
	filter := bson.M{
		"user_id":      userID,
		"total_points": expectedPoints,
	}
	update := bson.M{
		"$set": bson.M{
			"tier":       tier,
			"updated_at": time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set loyalty tier: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (m *mongoLoyaltyRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create loyalty indexes: %w", err)
	}

	return nil
}
