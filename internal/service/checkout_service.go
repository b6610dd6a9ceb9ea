package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/fjod/go_storefront/internal/service")

// CartReader supplies the stored cart when a checkout request carries none.
type CartReader interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// EventPublisher announces completed checkouts.
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error
}

type CheckoutService struct {
	carts     CartReader
	orders    repository.OrderRepository
	loyalty   *LoyaltyService
	analytics *AnalyticsService
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

func NewCheckoutService(
	carts CartReader,
	orders repository.OrderRepository,
	loyalty *LoyaltyService,
	analytics *AnalyticsService,
	publisher EventPublisher,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		loyalty:   loyalty,
		analytics: analytics,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// checkout carries one request through the state machine.
type checkout struct {
	req    *domain.CheckoutRequest
	status domain.CheckoutStatus
	span   trace.Span

	cart    *domain.Cart
	percent int
	charged decimal.Decimal
	order   *domain.PurchaseOrder
	accrual *Accrual
	class   domain.Classification
}

func (c *checkout) advance(next domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(c.status, next) {
		return ErrIllegalTransition
	}
	c.status = next
	c.span.AddEvent(next.String())
	return nil
}

// Checkout validates the cart, records the purchase, credits loyalty points
// and reclassifies the user. A failed step is not rolled back; the returned
// *CheckoutError names the state the checkout had reached.
func (s *CheckoutService) Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.Checkout", trace.WithAttributes(attribute.String("user.id", req.UserID)))
	defer span.End()

	c := &checkout{req: req, status: domain.CheckoutStatusReceived, span: span}
	log := s.log.WithContext(ctx).With("user_id", req.UserID)

	steps := []struct {
		next domain.CheckoutStatus
		run  func(context.Context, *checkout) error
	}{
		{domain.CheckoutStatusValidated, s.validate},
		{domain.CheckoutStatusPurchaseRecorded, s.recordPurchase},
		{domain.CheckoutStatusLoyaltyUpdated, s.updateLoyalty},
		{domain.CheckoutStatusAnalyticsUpdated, s.updateAnalytics},
	}
	for _, step := range steps {
		err := step.run(ctx, c)
		if err == nil {
			err = c.advance(step.next)
		}
		if err != nil {
			failed := &CheckoutError{Stage: c.status, Err: err}
			c.status = domain.CheckoutStatusFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, failed.Error())
			if errors.Is(err, ErrEmptyCart) {
				log.Info("checkout rejected", "error", err)
			} else {
				log.Error("checkout failed", "stage", failed.Stage.String(), "error", err)
			}
			return nil, failed
		}
	}
	if err := c.advance(domain.CheckoutStatusCompleted); err != nil {
		return nil, &CheckoutError{Stage: c.status, Err: err}
	}

	s.announce(ctx, c, log)
	log.Info("checkout completed", "order_id", c.order.OrderID, "charged", c.charged.String())

	return &domain.CheckoutResult{
		Success:         true,
		OrderID:         c.order.OrderID,
		Status:          c.status,
		TotalAmount:     c.cart.TotalAmount,
		DiscountPercent: c.percent,
		ChargedAmount:   c.charged,
		PointsEarned:    c.accrual.PointsEarned,
		PreviousLoyalty: c.accrual.Previous,
		UpdatedLoyalty:  c.accrual.Updated,
		Classification:  c.class,
	}, nil
}

func (s *CheckoutService) validate(ctx context.Context, c *checkout) error {
	if c.req.Cart != nil {
		// Client snapshots are trusted for lines only.
		c.cart = c.req.Cart.Clone()
		c.cart.UserID = c.req.UserID
		c.cart.Recalculate()
	} else {
		cart, err := s.carts.GetCart(ctx, c.req.UserID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		c.cart = cart
	}
	if c.cart == nil || c.cart.IsEmpty() {
		return ErrEmptyCart
	}
	for _, item := range c.cart.Items {
		if err := validateLine(item); err != nil {
			return err
		}
	}

	if c.req.WantsDiscount() {
		profile, err := s.loyalty.Get(ctx, c.req.UserID)
		switch {
		case errors.Is(err, repository.ErrLoyaltyNotFound):
		case err != nil:
			return fmt.Errorf("load loyalty profile: %w", err)
		default:
			c.percent = domain.DiscountPercentFor(profile.Tier, profile.TotalPoints)
		}
	}
	c.charged = domain.ApplyDiscount(c.cart.TotalAmount, c.percent)
	return nil
}

func (s *CheckoutService) recordPurchase(ctx context.Context, c *checkout) error {
	initial := domain.Classify(1)
	c.order = &domain.PurchaseOrder{
		OrderID:           uuid.NewString(),
		UserID:            c.req.UserID,
		Items:             domain.OrderItemsFromCart(c.cart),
		TotalAmount:       c.cart.TotalAmount,
		TotalItems:        c.cart.TotalItems,
		DiscountPercent:   c.percent,
		ChargedAmount:     c.charged,
		PurchaseDate:      s.now(),
		PurchaseFrequency: initial.Frequency,
		CustomerSegment:   initial.Segment,
		SessionData:       c.req.SessionData,
	}
	if err := s.orders.CreateOrder(ctx, c.order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	c.span.SetAttributes(attribute.String("order.id", c.order.OrderID))
	return nil
}

func (s *CheckoutService) updateLoyalty(ctx context.Context, c *checkout) error {
	// Points are earned on the amount before discount.
	accrual, err := s.loyalty.Accrue(ctx, c.req.UserID, c.cart.TotalAmount)
	if err != nil {
		return fmt.Errorf("accrue loyalty: %w", err)
	}
	c.accrual = accrual
	return nil
}

func (s *CheckoutService) updateAnalytics(ctx context.Context, c *checkout) error {
	class, err := s.analytics.Reclassify(ctx, c.req.UserID)
	if err != nil {
		return fmt.Errorf("reclassify: %w", err)
	}
	c.class = class
	return nil
}

func (s *CheckoutService) announce(ctx context.Context, c *checkout, log *logger.Logger) {
	if s.publisher == nil {
		return
	}
	event := domain.CheckoutCompletedEvent{
		OrderID:       c.order.OrderID,
		UserID:        c.req.UserID,
		TotalAmount:   c.cart.TotalAmount,
		ChargedAmount: c.charged,
		TotalItems:    c.cart.TotalItems,
	}
	if err := s.publisher.PublishCheckoutCompleted(ctx, event); err != nil {
		log.Warn("publish checkout completed failed", "order_id", c.order.OrderID, "error", err)
	}
}
