package domain

import "github.com/shopspring/decimal"

type CheckoutStatus string

const (
	CheckoutStatusReceived         CheckoutStatus = "RECEIVED"
	CheckoutStatusValidated        CheckoutStatus = "VALIDATED"
	CheckoutStatusPurchaseRecorded CheckoutStatus = "PURCHASE_RECORDED"
	CheckoutStatusLoyaltyUpdated   CheckoutStatus = "LOYALTY_UPDATED"
	CheckoutStatusAnalyticsUpdated CheckoutStatus = "ANALYTICS_UPDATED"
	CheckoutStatusCompleted        CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed           CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus]CheckoutStatus{
	CheckoutStatusReceived:         CheckoutStatusValidated,
	CheckoutStatusValidated:        CheckoutStatusPurchaseRecorded,
	CheckoutStatusPurchaseRecorded: CheckoutStatusLoyaltyUpdated,
	CheckoutStatusLoyaltyUpdated:   CheckoutStatusAnalyticsUpdated,
	CheckoutStatusAnalyticsUpdated: CheckoutStatusCompleted,
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo allows the single forward step of the linear flow, or a
// failure from any non-terminal state.
func CanTransitionTo(from, to CheckoutStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == CheckoutStatusFailed {
		return true
	}
	return checkoutTransitions[from] == to
}

type CheckoutRequest struct {
	UserID string
	// Cart is the client snapshot; nil means the stored cart is used.
	Cart            *Cart
	SessionData     SessionData
	DiscountApplied *int
	ApplyDiscount   bool
}

// WantsDiscount reports whether the caller opted into the loyalty discount.
func (r *CheckoutRequest) WantsDiscount() bool {
	return r.ApplyDiscount || (r.DiscountApplied != nil && *r.DiscountApplied > 0)
}

type CheckoutResult struct {
	Success         bool            `json:"success"`
	OrderID         string          `json:"orderId"`
	Status          CheckoutStatus  `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DiscountPercent int             `json:"discountPercent"`
	ChargedAmount   decimal.Decimal `json:"chargedAmount"`
	PointsEarned    int             `json:"pointsEarned"`
	PreviousLoyalty *LoyaltyProfile `json:"previousLoyalty"`
	UpdatedLoyalty  *LoyaltyProfile `json:"updatedLoyalty"`
	Classification  Classification  `json:"classification"`
}

// CheckoutCompletedEvent is published once a checkout reaches Completed.
type CheckoutCompletedEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ChargedAmount decimal.Decimal `json:"charged_amount"`
	TotalItems    int             `json:"total_items"`
}
