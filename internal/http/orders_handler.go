package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type OrdersService interface {
	OrderHistory(ctx context.Context, userID string) ([]*domain.PurchaseOrder, error)
	Report(ctx context.Context, q domain.AnalyticsQuery) (*domain.AnalyticsReport, error)
}

type OrdersHandler struct {
	orders  OrdersService
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.OrderHistory(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.PurchaseOrder{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/analytics?timeframe=week&productId=p1&limit=5
func (h *OrdersHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query()
	timeframe, err := domain.ParseTimeframe(query.Get("timeframe"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_timeframe", err.Error())
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
	}

	report, err := h.orders.Report(ctx, domain.AnalyticsQuery{
		UserID:    getUserIDFromContext(r.Context()),
		Timeframe: timeframe,
		ProductID: query.Get("productId"),
		Limit:     limit,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
