package http

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type CartServiceMock struct {
	cart *domain.Cart
	err  error

	lastUserID   string
	lastItem     domain.CartItem
	lastItemID   string
	lastQuantity int
	lastSnapshot *domain.Cart
}

func (m *CartServiceMock) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.lastUserID = userID
	return m.cart, m.err
}

func (m *CartServiceMock) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	m.lastUserID, m.lastItem = userID, item
	return m.cart, m.err
}

func (m *CartServiceMock) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	m.lastUserID, m.lastItemID = userID, itemID
	return m.cart, m.err
}

func (m *CartServiceMock) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	m.lastUserID, m.lastItemID, m.lastQuantity = userID, itemID, quantity
	return m.cart, m.err
}

func (m *CartServiceMock) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.lastUserID = userID
	return m.cart, m.err
}

func (m *CartServiceMock) ReplaceCart(ctx context.Context, userID string, snapshot *domain.Cart) (*domain.Cart, error) {
	m.lastUserID, m.lastSnapshot = userID, snapshot
	return m.cart, m.err
}

type CheckoutServiceMock struct {
	result  *domain.CheckoutResult
	err     error
	lastReq *domain.CheckoutRequest
}

func (m *CheckoutServiceMock) Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	m.lastReq = req
	return m.result, m.err
}

type LoyaltyServiceMock struct {
	profile *domain.LoyaltyProfile
	quote   *service.DiscountQuote
	err     error
}

func (m *LoyaltyServiceMock) Get(ctx context.Context, userID string) (*domain.LoyaltyProfile, error) {
	return m.profile, m.err
}

func (m *LoyaltyServiceMock) Discount(ctx context.Context, userID string) (*service.DiscountQuote, error) {
	return m.quote, m.err
}

type OrdersServiceMock struct {
	orders    []*domain.PurchaseOrder
	report    *domain.AnalyticsReport
	err       error
	lastQuery domain.AnalyticsQuery
}

func (m *OrdersServiceMock) OrderHistory(ctx context.Context, userID string) ([]*domain.PurchaseOrder, error) {
	return m.orders, m.err
}

func (m *OrdersServiceMock) Report(ctx context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error) {
	m.lastQuery = q
	return m.report, m.err
}

type InteractionServiceMock struct {
	err  error
	last *domain.Interaction
}

func (m *InteractionServiceMock) Record(ctx context.Context, in *domain.Interaction) error {
	m.last = in
	return m.err
}

type testServices struct {
	carts        *CartServiceMock
	checkout     *CheckoutServiceMock
	loyalty      *LoyaltyServiceMock
	orders       *OrdersServiceMock
	interactions *InteractionServiceMock
}

func newTestRouter(t *testing.T) (*testServices, RouterConfig) {
	t.Helper()
	auth, err := NewAuthenticator(testSecret, "", "storefront")
	require.NoError(t, err)

	s := &testServices{
		carts:        &CartServiceMock{},
		checkout:     &CheckoutServiceMock{},
		loyalty:      &LoyaltyServiceMock{},
		orders:       &OrdersServiceMock{},
		interactions: &InteractionServiceMock{},
	}
	return s, RouterConfig{
		Log:            logger.Nop(),
		Auth:           auth,
		RequestTimeout: 5 * time.Second,
		Carts:          s.carts,
		Checkout:       s.checkout,
		Loyalty:        s.loyalty,
		Orders:         s.orders,
		Interactions:   s.interactions,
	}
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "storefront",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
