package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseFrequency string

const (
	FrequencyFirstTime  PurchaseFrequency = "first_time"
	FrequencyOccasional PurchaseFrequency = "occasional"
	FrequencyRegular    PurchaseFrequency = "regular"
	FrequencyFrequent   PurchaseFrequency = "frequent"
)

const (
	SegmentNew       = "new"
	SegmentReturning = "returning"
	SegmentLoyal     = "loyal"
)

type OrderItem struct {
	ProductID   string          `bson:"product_id" json:"productId"`
	ProductName string          `bson:"product_name" json:"productName"`
	Quantity    int             `bson:"quantity" json:"quantity"`
	Price       decimal.Decimal `bson:"price" json:"price"`
}

type SessionData struct {
	DeviceType string    `bson:"device_type,omitempty" json:"deviceType,omitempty"`
	Browser    string    `bson:"browser,omitempty" json:"browser,omitempty"`
	Referrer   string    `bson:"referrer,omitempty" json:"referrer,omitempty"`
	Timestamp  time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// PurchaseOrder is a price snapshot of a completed checkout. Only the
// classification fields change after creation.
type PurchaseOrder struct {
	ID                string            `bson:"_id,omitempty" json:"-"`
	OrderID           string            `bson:"order_id" json:"orderId"`
	UserID            string            `bson:"user_id" json:"userId"`
	Items             []OrderItem       `bson:"items" json:"items"`
	TotalAmount       decimal.Decimal   `bson:"total_amount" json:"totalAmount"`
	TotalItems        int               `bson:"total_items" json:"totalItems"`
	DiscountPercent   int               `bson:"discount_percent" json:"discountPercent"`
	ChargedAmount     decimal.Decimal   `bson:"charged_amount" json:"chargedAmount"`
	PurchaseDate      time.Time         `bson:"purchase_date" json:"purchaseDate"`
	PurchaseFrequency PurchaseFrequency `bson:"purchase_frequency" json:"purchaseFrequency"`
	CustomerSegment   string            `bson:"customer_segment" json:"customerSegment"`
	SessionData       SessionData       `bson:"session_data" json:"sessionData"`
}

// Classification is the lifetime classification derived from an order count.
type Classification struct {
	Frequency PurchaseFrequency `json:"purchaseFrequency"`
	Segment   string            `json:"customerSegment"`
}

func Classify(orderCount int64) Classification {
	switch {
	case orderCount > 10:
		return Classification{FrequencyFrequent, SegmentLoyal}
	case orderCount > 5:
		return Classification{FrequencyRegular, SegmentReturning}
	case orderCount > 1:
		return Classification{FrequencyOccasional, SegmentReturning}
	default:
		return Classification{FrequencyFirstTime, SegmentNew}
	}
}

// OrderItemsFromCart copies each cart line with its current unit price.
func OrderItemsFromCart(c *Cart) []OrderItem {
	items := make([]OrderItem, len(c.Items))
	for i, line := range c.Items {
		items[i] = OrderItem{
			ProductID:   line.ID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
	}
	return items
}
