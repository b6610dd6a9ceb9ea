package service

import (
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/domain"
)

var (
	ErrEmptyCart          = errors.New("cart empty")
	ErrInvalidItem        = errors.New("invalid cart item")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidInteraction = errors.New("invalid interaction")
	ErrInvalidQuery       = errors.New("invalid analytics query")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
)

// CheckoutError reports the state a checkout was in when it failed.
type CheckoutError struct {
	Stage domain.CheckoutStatus
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.Stage, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}
