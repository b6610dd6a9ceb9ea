package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondDetailedError(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleServiceError maps service and repository errors to HTTP statuses.
// Persistence failures never leak their message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var checkoutErr *service.CheckoutError
	details := ""
	if errors.As(err, &checkoutErr) {
		details = "failed at " + checkoutErr.Stage.String()
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondDetailedError(w, http.StatusBadRequest, "cart_empty", "Cart is empty", details)
	case errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidInteraction),
		errors.Is(err, service.ErrInvalidQuery):
		respondDetailedError(w, http.StatusBadRequest, "invalid_argument", err.Error(), details)
	case errors.Is(err, repository.ErrLoyaltyNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Loyalty profile not found")
	default:
		loggerFrom(r).Error("request failed", "path", r.URL.Path, "error", err)
		respondDetailedError(w, http.StatusInternalServerError, "internal_error", "internal server error", details)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
