package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type LoyaltyService interface {
	Get(ctx context.Context, userID string) (*domain.LoyaltyProfile, error)
	Discount(ctx context.Context, userID string) (*service.DiscountQuote, error)
}

type LoyaltyHandler struct {
	loyalty LoyaltyService
	timeout time.Duration
}

func NewLoyaltyHandler(loyalty LoyaltyService, timeout time.Duration) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyalty: loyalty,
		timeout: timeout,
	}
}

func (h *LoyaltyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.loyalty.Get(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *LoyaltyHandler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	quote, err := h.loyalty.Discount(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}
