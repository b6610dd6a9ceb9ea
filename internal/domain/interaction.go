package domain

import "time"

type InteractionAction string

const (
	ActionView      InteractionAction = "view"
	ActionClick     InteractionAction = "click"
	ActionAddToCart InteractionAction = "add_to_cart"
	ActionPurchase  InteractionAction = "purchase"
	ActionSearch    InteractionAction = "search"
)

func (a InteractionAction) Valid() bool {
	switch a {
	case ActionView, ActionClick, ActionAddToCart, ActionPurchase, ActionSearch:
		return true
	}
	return false
}

// Interaction is a browsing event kept for the recommendation service.
type Interaction struct {
	ID          string            `bson:"_id,omitempty" json:"-"`
	UserID      string            `bson:"user_id" json:"userId"`
	Action      InteractionAction `bson:"action" json:"action"`
	ProductID   string            `bson:"product_id,omitempty" json:"productId,omitempty"`
	SearchQuery string            `bson:"search_query,omitempty" json:"searchQuery,omitempty"`
	FiltersUsed map[string]any    `bson:"filters_used,omitempty" json:"filtersUsed,omitempty"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
}
