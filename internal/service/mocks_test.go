package service

import (
	"context"
	"sort"
	"sync"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

// MockCartRepository keeps carts in memory.
type MockCartRepository struct {
	mu      sync.Mutex
	Carts   map[string]*domain.Cart
	GetErr  error
	Gets    int
	Deleted []string
	// GetGate, when set, holds every GetCart until it is closed. The context
	// error seen after the gate opens is recorded in GetCtxErrs.
	GetGate    chan struct{}
	GetCtxErrs []error
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{Carts: make(map[string]*domain.Cart)}
}

func (m *MockCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	gate := m.GetGate
	m.Gets++
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gate != nil {
		m.GetCtxErrs = append(m.GetCtxErrs, ctx.Err())
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	c, ok := m.Carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (m *MockCartRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Carts[cart.UserID] = cart.Clone()
	return nil
}

func (m *MockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, userID)
	if _, ok := m.Carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.Carts, userID)
	return nil
}

// MockCartCache implements cache.CartCache in memory.
type MockCartCache struct {
	mu     sync.Mutex
	Carts  map[string]*domain.Cart
	GetErr error
	SetErr error
}

func NewMockCartCache() *MockCartCache {
	return &MockCartCache{Carts: make(map[string]*domain.Cart)}
}

func (m *MockCartCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	c, ok := m.Carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c.Clone(), nil
}

func (m *MockCartCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Carts[userID] = cart.Clone()
	return nil
}

func (m *MockCartCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Carts, userID)
	return nil
}

// MockSyncer records enqueued snapshots instead of replicating them. Deletes
// go straight to Repo.
type MockSyncer struct {
	Repo     *MockCartRepository
	Enqueued []*domain.Cart
	Deleted  []string
}

func (m *MockSyncer) Enqueue(cart *domain.Cart) {
	m.Enqueued = append(m.Enqueued, cart.Clone())
}

func (m *MockSyncer) Delete(ctx context.Context, userID string) error {
	m.Deleted = append(m.Deleted, userID)
	return m.Repo.DeleteCart(ctx, userID)
}

// MockLoyaltyRepository mimics the atomic increment of the MongoDB store.
type MockLoyaltyRepository struct {
	mu       sync.Mutex
	Profiles map[string]*domain.LoyaltyProfile
	AddErr   error
	// BeforeSetTier runs once before the first SetTier, to simulate a
	// concurrent accrual.
	BeforeSetTier func()
	SetTierCalls  int
}

func NewMockLoyaltyRepository() *MockLoyaltyRepository {
	return &MockLoyaltyRepository{Profiles: make(map[string]*domain.LoyaltyProfile)}
}

func (m *MockLoyaltyRepository) GetProfile(_ context.Context, userID string) (*domain.LoyaltyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Profiles[userID]
	if !ok {
		return nil, repository.ErrLoyaltyNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockLoyaltyRepository) AddPoints(_ context.Context, userID string, points int) (*domain.LoyaltyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	p, ok := m.Profiles[userID]
	if !ok {
		m.Profiles[userID] = &domain.LoyaltyProfile{UserID: userID, TotalPoints: points, Tier: domain.TierStandard}
		return nil, nil
	}
	before := *p
	p.TotalPoints += points
	return &before, nil
}

func (m *MockLoyaltyRepository) SetTier(_ context.Context, userID string, expected int, tier domain.Tier) (bool, error) {
	m.mu.Lock()
	hook := m.BeforeSetTier
	m.BeforeSetTier = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetTierCalls++
	p, ok := m.Profiles[userID]
	if !ok || p.TotalPoints != expected {
		return false, nil
	}
	p.Tier = tier
	return true, nil
}

// MockOrderRepository keeps orders in insertion order.
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    []*domain.PurchaseOrder
	CreateErr error
	CountErr  error
	Queries   []domain.AnalyticsQuery
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	cp := *order
	m.Orders = append(m.Orders, &cp)
	return nil
}

func (m *MockOrderRepository) CountOrdersByUserID(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	var n int64
	for _, o := range m.Orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockOrderRepository) UpdateClassification(_ context.Context, userID string, c domain.Classification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.Orders {
		if o.UserID == userID {
			o.PurchaseFrequency = c.Frequency
			o.CustomerSegment = c.Segment
			n++
		}
	}
	return n, nil
}

func (m *MockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.PurchaseOrder{}
	for _, o := range m.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

func (m *MockOrderRepository) Report(_ context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	return &domain.AnalyticsReport{Timeframe: q.Timeframe}, nil
}

func (m *MockOrderRepository) byUser(userID string) []*domain.PurchaseOrder {
	out, _ := m.ListOrdersByUserID(context.Background(), userID)
	return out
}

type MockInteractionRepository struct {
	Inserted []*domain.Interaction
}

func (m *MockInteractionRepository) InsertInteraction(_ context.Context, in *domain.Interaction) error {
	m.Inserted = append(m.Inserted, in)
	return nil
}

type MockPublisher struct {
	Events []domain.CheckoutCompletedEvent
	Err    error
}

func (m *MockPublisher) PublishCheckoutCompleted(_ context.Context, event domain.CheckoutCompletedEvent) error {
	m.Events = append(m.Events, event)
	return m.Err
}
