package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

const maxReportLimit = 100

type AnalyticsService struct {
	orders repository.OrderRepository
	now    func() time.Time
}

func NewAnalyticsService(orders repository.OrderRepository) *AnalyticsService {
	return &AnalyticsService{orders: orders, now: time.Now}
}

// Reclassify recomputes the user's lifetime classification and writes it to
// every order of that user.
func (s *AnalyticsService) Reclassify(ctx context.Context, userID string) (domain.Classification, error) {
	count, err := s.orders.CountOrdersByUserID(ctx, userID)
	if err != nil {
		return domain.Classification{}, err
	}

	c := domain.Classify(count)
	if _, err := s.orders.UpdateClassification(ctx, userID, c); err != nil {
		return domain.Classification{}, err
	}
	return c, nil
}

func (s *AnalyticsService) Report(ctx context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error) {
	if q.Timeframe == "" {
		q.Timeframe = domain.TimeframeMonth
	}
	if q.Limit < 0 || q.Limit > maxReportLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, maxReportLimit)
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	return s.orders.Report(ctx, q)
}

// OrderHistory lists the user's orders, newest first.
func (s *AnalyticsService) OrderHistory(ctx context.Context, userID string) ([]*domain.PurchaseOrder, error) {
	return s.orders.ListOrdersByUserID(ctx, userID)
}
