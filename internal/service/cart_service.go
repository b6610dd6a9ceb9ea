package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	MaxItemQuantity = 99
	cartLoadTimeout = 5 * time.Second
)

// CartSyncer replicates cart snapshots to the repository in the background.
// Delete is ordered after any write still in flight for the same user.
type CartSyncer interface {
	Enqueue(cart *domain.Cart)
	Delete(ctx context.Context, userID string) error
}

// validateLine applies the rules every stored or purchased cart line obeys.
func validateLine(item domain.CartItem) error {
	if item.ID == "" || item.Price.IsNegative() {
		return ErrInvalidItem
	}
	if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	syncer CartSyncer
	log    *logger.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, syncer CartSyncer, log *logger.Logger) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		syncer: syncer,
		log:    log,
	}
}

// GetCart returns the user's cart: cached copy first, then the repository,
// then an empty cart. The returned cart is owned by the caller.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key.
	// The shared load must not fail because the first caller went away.
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartLoadTimeout)
		defer cancel()

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithContext(ctx).Warn("cart cache get failed", "user_id", userID, "error", err)
		}

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(userID), nil
		}
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}

		s.writeCache(ctx, cart)
		return cart, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Cart).Clone(), nil
	}
}

func (s *CartService) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ID == "" || item.Price.IsNegative() {
		return nil, ErrInvalidItem
	}
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.AddItem(item)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 || quantity > MaxItemQuantity {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.UpdateQuantity(itemID, quantity)
		return nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// ReplaceCart stores a full client snapshot. Totals are rebuilt from the lines.
func (s *CartService) ReplaceCart(ctx context.Context, userID string, snapshot *domain.Cart) (*domain.Cart, error) {
	for _, item := range snapshot.Items {
		if err := validateLine(item); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.Items = append([]domain.CartItem{}, snapshot.Items...)
		c.Recalculate()
		c.UpdatedAt = time.Now()
		return nil
	})
}

// DeleteCart drops every copy of the user's cart, including a pending sync.
func (s *CartService) DeleteCart(ctx context.Context, userID string) error {
	if err := s.syncer.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return fmt.Errorf("delete cart: %w", err)
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WithContext(ctx).Warn("cart cache delete failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *CartService) mutate(ctx context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.UserID = userID
	if err := apply(cart); err != nil {
		return nil, err
	}

	s.writeCache(ctx, cart)
	s.syncer.Enqueue(cart)
	return cart, nil
}

func (s *CartService) writeCache(ctx context.Context, cart *domain.Cart) {
	if err := s.cache.Set(ctx, cart.UserID, cart); err != nil {
		s.log.WithContext(ctx).Warn("cart cache set failed", "user_id", cart.UserID, "error", err)
	}
}
