package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	svc       *CheckoutService
	carts     *CartService
	cartRepo  *MockCartRepository
	loyalty   *MockLoyaltyRepository
	orders    *MockOrderRepository
	publisher *MockPublisher
}

func newCheckoutFixture() *checkoutFixture {
	log := logger.Nop()
	cartRepo := NewMockCartRepository()
	carts := NewCartService(cartRepo, NewMockCartCache(), &MockSyncer{Repo: cartRepo}, log)
	loyaltyRepo := NewMockLoyaltyRepository()
	orders := &MockOrderRepository{}
	publisher := &MockPublisher{}

	svc := NewCheckoutService(
		carts,
		orders,
		NewLoyaltyService(loyaltyRepo, log),
		NewAnalyticsService(orders),
		publisher,
		log,
	)
	return &checkoutFixture{
		svc:       svc,
		carts:     carts,
		cartRepo:  cartRepo,
		loyalty:   loyaltyRepo,
		orders:    orders,
		publisher: publisher,
	}
}

func cartWorth(userID string, amount string) *domain.Cart {
	c := domain.NewCart(userID)
	c.AddItem(domain.CartItem{ID: "p1", Name: "Jacket", Price: decimal.RequireFromString(amount)})
	return c
}

func TestCheckout_NewUser500(t *testing.T) {
	f := newCheckoutFixture()

	res, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{
		UserID:      "u1",
		Cart:        cartWorth("u1", "500"),
		SessionData: domain.SessionData{DeviceType: "mobile", Browser: "firefox"},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, domain.CheckoutStatusCompleted, res.Status)
	_, parseErr := uuid.Parse(res.OrderID)
	assert.NoError(t, parseErr)
	assert.Nil(t, res.PreviousLoyalty)
	assert.Equal(t, 10, res.PointsEarned)
	assert.Equal(t, 10, res.UpdatedLoyalty.TotalPoints)
	assert.Equal(t, domain.TierStandard, res.UpdatedLoyalty.Tier)
	assert.True(t, decimal.NewFromInt(500).Equal(res.ChargedAmount))
	assert.Equal(t, domain.FrequencyFirstTime, res.Classification.Frequency)

	require.Len(t, f.orders.Orders, 1)
	order := f.orders.Orders[0]
	assert.Equal(t, res.OrderID, order.OrderID)
	assert.Equal(t, "mobile", order.SessionData.DeviceType)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Jacket", order.Items[0].ProductName)
	assert.Equal(t, domain.SegmentNew, order.CustomerSegment)

	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, res.OrderID, f.publisher.Events[0].OrderID)
	assert.Equal(t, "u1", f.publisher.Events[0].UserID)
}

func TestCheckout_CrossesIntoSilver(t *testing.T) {
	f := newCheckoutFixture()
	f.loyalty.Profiles["u1"] = &domain.LoyaltyProfile{UserID: "u1", TotalPoints: 245, Tier: domain.TierStandard}

	res, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "300")})
	require.NoError(t, err)

	require.NotNil(t, res.PreviousLoyalty)
	assert.Equal(t, 245, res.PreviousLoyalty.TotalPoints)
	assert.Equal(t, domain.TierStandard, res.PreviousLoyalty.Tier)
	assert.Equal(t, 6, res.PointsEarned)
	assert.Equal(t, 251, res.UpdatedLoyalty.TotalPoints)
	assert.Equal(t, domain.TierSilver, res.UpdatedLoyalty.Tier)
}

func TestCheckout_EmptyCartWritesNothing(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: domain.NewCart("u1")})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.EqualError(t, errors.Unwrap(err), "cart empty")

	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutStatusReceived, checkoutErr.Stage)

	// No cart in the request and nothing stored.
	_, err = f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, f.orders.Orders)
	assert.Empty(t, f.loyalty.Profiles)
	assert.Empty(t, f.publisher.Events)
}

func TestCheckout_RejectsQuantityAboveLimit(t *testing.T) {
	f := newCheckoutFixture()
	cart := domain.NewCart("u1")
	cart.AddItem(domain.CartItem{ID: "p1", Name: "Jacket", Price: decimal.NewFromInt(10)})
	cart.Items[0].Quantity = 500

	_, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cart})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutStatusReceived, checkoutErr.Stage)
	assert.Empty(t, f.orders.Orders)
	assert.Empty(t, f.loyalty.Profiles)
}

func TestCheckout_SixthOrderReclassifiesAll(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		res, err := f.svc.Checkout(ctx, &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "20")})
		require.NoError(t, err)
		if i == 1 {
			assert.Equal(t, domain.FrequencyOccasional, res.Classification.Frequency)
		}
	}
	_, err := f.svc.Checkout(ctx, &domain.CheckoutRequest{UserID: "u2", Cart: cartWorth("u2", "20")})
	require.NoError(t, err)

	orders := f.orders.byUser("u1")
	require.Len(t, orders, 6)
	for _, o := range orders {
		assert.Equal(t, domain.FrequencyRegular, o.PurchaseFrequency)
		assert.Equal(t, domain.SegmentReturning, o.CustomerSegment)
	}
	other := f.orders.byUser("u2")
	require.Len(t, other, 1)
	assert.Equal(t, domain.FrequencyFirstTime, other[0].PurchaseFrequency)
}

func TestCheckout_DiscountFromStoredProfile(t *testing.T) {
	f := newCheckoutFixture()
	f.loyalty.Profiles["gold"] = &domain.LoyaltyProfile{UserID: "gold", TotalPoints: 600, Tier: domain.TierGold}
	f.loyalty.Profiles["low"] = &domain.LoyaltyProfile{UserID: "low", TotalPoints: 99, Tier: domain.TierStandard}
	ctx := context.Background()

	// A client-supplied percent only opts in; the server decides the amount.
	claimed := 50
	res, err := f.svc.Checkout(ctx, &domain.CheckoutRequest{UserID: "gold", Cart: cartWorth("gold", "500"), DiscountApplied: &claimed})
	require.NoError(t, err)
	assert.Equal(t, 6, res.DiscountPercent)
	assert.True(t, decimal.NewFromInt(470).Equal(res.ChargedAmount), res.ChargedAmount.String())
	// Points are earned on the amount before discount.
	assert.Equal(t, 10, res.PointsEarned)

	res, err = f.svc.Checkout(ctx, &domain.CheckoutRequest{UserID: "low", Cart: cartWorth("low", "500"), ApplyDiscount: true})
	require.NoError(t, err)
	assert.Zero(t, res.DiscountPercent)
	assert.True(t, decimal.NewFromInt(500).Equal(res.ChargedAmount))

	res, err = f.svc.Checkout(ctx, &domain.CheckoutRequest{UserID: "gold", Cart: cartWorth("gold", "100")})
	require.NoError(t, err)
	assert.Zero(t, res.DiscountPercent)
	assert.True(t, decimal.NewFromInt(100).Equal(res.ChargedAmount))
}

func TestCheckout_UsesStoredCartWhenOmitted(t *testing.T) {
	f := newCheckoutFixture()
	f.cartRepo.Carts["u1"] = cartWorth("u1", "75")

	res, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(res.TotalAmount))
	assert.Equal(t, 2, res.PointsEarned)
}

func TestCheckout_ClientTotalsAreRecomputed(t *testing.T) {
	f := newCheckoutFixture()
	cart := cartWorth("u1", "100")
	cart.TotalAmount = decimal.NewFromInt(1)

	res, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cart})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(res.TotalAmount))
	assert.True(t, decimal.NewFromInt(100).Equal(f.orders.Orders[0].TotalAmount))
}

func TestCheckout_OrderFailureStopsBeforeLoyalty(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.CreateErr = errors.New("mongo down")

	_, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "500")})
	require.ErrorIs(t, err, f.orders.CreateErr)

	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutStatusValidated, checkoutErr.Stage)
	assert.Empty(t, f.loyalty.Profiles)
	assert.Empty(t, f.publisher.Events)
}

func TestCheckout_AnalyticsFailureKeepsEarlierWrites(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.CountErr = errors.New("count failed")

	_, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "500")})

	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, domain.CheckoutStatusLoyaltyUpdated, checkoutErr.Stage)
	assert.Len(t, f.orders.Orders, 1)
	assert.Equal(t, 10, f.loyalty.Profiles["u1"].TotalPoints)
}

func TestCheckout_PublishFailureIsNotSurfaced(t *testing.T) {
	f := newCheckoutFixture()
	f.publisher.Err = errors.New("kafka down")

	res, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "50")})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestCheckout_PurchaseDateFromClock(t *testing.T) {
	f := newCheckoutFixture()
	fixed := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	_, err := f.svc.Checkout(context.Background(), &domain.CheckoutRequest{UserID: "u1", Cart: cartWorth("u1", "50")})
	require.NoError(t, err)
	assert.Equal(t, fixed, f.orders.Orders[0].PurchaseDate)
}
