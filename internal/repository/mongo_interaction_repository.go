package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoInteractionRepository struct {
	collection *mongo.Collection
}

func NewMongoInteractionRepository(db *mongo.Database) InteractionRepository {
	return &mongoInteractionRepository{
		collection: db.Collection(interactionsCollection),
	}
}

func (m *mongoInteractionRepository) InsertInteraction(ctx context.Context, interaction *domain.Interaction) error {
	doc := *interaction
	doc.ID = ""
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (m *mongoInteractionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "action", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create interaction indexes: %w", err)
	}

	return nil
}
