package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const defaultReportLimit = 10

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection(purchasesCollection),
	}
}

func (m *mongoOrderRepository) CreateOrder(ctx context.Context, order *domain.PurchaseOrder) error {
	doc := *order
	doc.ID = ""
	if doc.Items == nil {
		doc.Items = []domain.OrderItem{}
	}

	_, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) CountOrdersByUserID(ctx context.Context, userID string) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// UpdateClassification rewrites the classification on every order of userID
// and returns the number of orders matched.
func (m *mongoOrderRepository) UpdateClassification(ctx context.Context, userID string, c domain.Classification) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"purchase_frequency": c.Frequency,
			"customer_segment":   c.Segment,
		},
	}

	result, err := m.collection.UpdateMany(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return 0, fmt.Errorf("update classification: %w", err)
	}
	return result.MatchedCount, nil
}

// ListOrdersByUserID returns the orders of userID, newest first.
func (m *mongoOrderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.PurchaseOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "purchase_date", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []*domain.PurchaseOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func reportFilter(q domain.AnalyticsQuery) bson.M {
	filter := bson.M{"user_id": q.UserID}
	if since := q.Timeframe.Since(q.Now); !since.IsZero() {
		filter["purchase_date"] = bson.M{"$gte": since}
	}
	if q.ProductID != "" {
		filter["items.product_id"] = q.ProductID
	}
	return filter
}

// Report runs the analytics aggregations for one user concurrently.
func (m *mongoOrderRepository) Report(ctx context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultReportLimit
	}
	match := bson.D{{Key: "$match", Value: reportFilter(q)}}

	report := &domain.AnalyticsReport{
		Timeframe:                   q.Timeframe,
		TotalRevenue:                decimal.Zero,
		FrequentlyPurchasedProducts: []domain.ProductStat{},
		CustomerSegmentBreakdown:    []domain.SegmentStat{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := m.collection.CountDocuments(gctx, reportFilter(q))
		if err != nil {
			return fmt.Errorf("count purchases: %w", err)
		}
		report.TotalPurchases = n
		return nil
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			match,
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
			}}},
		}
		var rows []struct {
			Total decimal.Decimal `bson:"total"`
		}
		if err := m.aggregate(gctx, pipeline, &rows); err != nil {
			return fmt.Errorf("total revenue: %w", err)
		}
		if len(rows) > 0 {
			report.TotalRevenue = rows[0].Total
		}
		return nil
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			match,
			{{Key: "$unwind", Value: "$items"}},
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$items.product_id"},
				{Key: "product_name", Value: bson.D{{Key: "$first", Value: "$items.product_name"}}},
				{Key: "total_quantity", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
				{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: bson.D{
					{Key: "$multiply", Value: bson.A{"$items.price", "$items.quantity"}},
				}}}},
				{Key: "purchase_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "total_quantity", Value: -1}, {Key: "_id", Value: 1}}}},
			{{Key: "$limit", Value: limit}},
		}
		stats := []domain.ProductStat{}
		if err := m.aggregate(gctx, pipeline, &stats); err != nil {
			return fmt.Errorf("frequently purchased products: %w", err)
		}
		report.FrequentlyPurchasedProducts = stats
		return nil
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			match,
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$customer_segment"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		}
		stats := []domain.SegmentStat{}
		if err := m.aggregate(gctx, pipeline, &stats); err != nil {
			return fmt.Errorf("customer segment breakdown: %w", err)
		}
		report.CustomerSegmentBreakdown = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (m *mongoOrderRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purchase_date", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	return nil
}
