package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	Cart            *ReplaceCartRequestDTO `json:"cart"`
	SessionData     domain.SessionData     `json:"sessionData"`
	DiscountApplied *int                   `json:"discountApplied"`
	ApplyDiscount   bool                   `json:"applyDiscount"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto CheckoutRequestDTO
	if err := decodeJSON(r, &dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	userID := getUserIDFromContext(r.Context())
	req := &domain.CheckoutRequest{
		UserID:          userID,
		SessionData:     dto.SessionData,
		DiscountApplied: dto.DiscountApplied,
		ApplyDiscount:   dto.ApplyDiscount,
	}
	if dto.Cart != nil {
		req.Cart = &domain.Cart{UserID: userID, Items: dto.Cart.Items}
	}
	if req.SessionData.Timestamp.IsZero() {
		req.SessionData.Timestamp = time.Now()
	}

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
