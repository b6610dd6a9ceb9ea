package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	cartsCollection        = "carts"
	loyaltyCollection      = "loyalty_profiles"
	purchasesCollection    = "purchases"
	interactionsCollection = "interactions"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLoyaltyNotFound = errors.New("loyalty profile not found")
	ErrDuplicateOrder  = errors.New("order already exists")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type LoyaltyRepository interface {
	GetProfile(ctx context.Context, userID string) (*domain.LoyaltyProfile, error)
	// AddPoints atomically increments the balance, creating the profile when
	// missing, and returns the profile as it was before the increment (nil
	// when it did not exist).
	AddPoints(ctx context.Context, userID string, points int) (*domain.LoyaltyProfile, error)
	// SetTier writes tier only if the balance still equals expectedPoints.
	SetTier(ctx context.Context, userID string, expectedPoints int, tier domain.Tier) (bool, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.PurchaseOrder) error
	CountOrdersByUserID(ctx context.Context, userID string) (int64, error)
	UpdateClassification(ctx context.Context, userID string, c domain.Classification) (int64, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.PurchaseOrder, error)
	Report(ctx context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error)
}

type InteractionRepository interface {
	InsertInteraction(ctx context.Context, interaction *domain.Interaction) error
}
