package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type InteractionService interface {
	Record(ctx context.Context, in *domain.Interaction) error
}

type InteractionHandler struct {
	interactions InteractionService
	timeout      time.Duration
}

func NewInteractionHandler(interactions InteractionService, timeout time.Duration) *InteractionHandler {
	return &InteractionHandler{
		interactions: interactions,
		timeout:      timeout,
	}
}

type InteractionRequestDTO struct {
	Action      domain.InteractionAction `json:"action"`
	ProductID   string                   `json:"productId"`
	SearchQuery string                   `json:"searchQuery"`
	FiltersUsed map[string]any           `json:"filtersUsed"`
}

func (h *InteractionHandler) Record(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req InteractionRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	in := &domain.Interaction{
		UserID:      getUserIDFromContext(r.Context()),
		Action:      req.Action,
		ProductID:   req.ProductID,
		SearchQuery: req.SearchQuery,
		FiltersUsed: req.FiltersUsed,
	}
	if err := h.interactions.Record(ctx, in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, in)
}
