package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID          string          `bson:"_id,omitempty" json:"-"`
	UserID      string          `bson:"user_id" json:"userId"`
	Items       []CartItem      `bson:"items" json:"items"`
	TotalItems  int             `bson:"total_items" json:"totalItems"`
	TotalAmount decimal.Decimal `bson:"total_amount" json:"totalAmount"`
	CreatedAt   time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ID       string          `bson:"id" json:"id"`
	Name     string          `bson:"name" json:"name"`
	Price    decimal.Decimal `bson:"price" json:"price"`
	Image    string          `bson:"image" json:"image"`
	Category string          `bson:"category" json:"category"`
	Quantity int             `bson:"quantity" json:"quantity"`
}

// NewCart returns the empty cart state for userID.
func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:      userID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem adds one unit of item. An existing line with the same id is
// incremented, otherwise a new line with quantity 1 is appended.
func (c *Cart) AddItem(item CartItem) {
	if i := c.indexOf(item.ID); i >= 0 {
		c.Items[i].Quantity++
	} else {
		item.Quantity = 1
		c.Items = append(c.Items, item)
	}
	c.TotalItems++
	c.TotalAmount = c.TotalAmount.Add(item.Price)
	c.touch()
}

// RemoveItem takes one unit of the line off the cart, dropping the line when
// its last unit goes. Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	price := c.Items[i].Price
	if c.Items[i].Quantity <= 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity--
	}
	c.TotalItems--
	c.TotalAmount = c.TotalAmount.Sub(price)
	c.touch()
}

// UpdateQuantity sets the quantity of a line. Callers guarantee quantity >= 1.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	delta := quantity - c.Items[i].Quantity
	c.Items[i].Quantity = quantity
	c.TotalItems += delta
	c.TotalAmount = c.TotalAmount.Add(c.Items[i].Price.Mul(decimal.NewFromInt(int64(delta))))
	c.touch()
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalItems = 0
	c.TotalAmount = decimal.Zero
	c.touch()
}

// Recalculate rebuilds the totals from the lines. Snapshots coming from
// clients go through it so stored totals always match the items.
func (c *Cart) Recalculate() {
	items := 0
	amount := decimal.Zero
	for _, item := range c.Items {
		items += item.Quantity
		amount = amount.Add(item.Subtotal())
	}
	c.TotalItems = items
	c.TotalAmount = amount
}

// Clone returns a deep copy safe to hand to background goroutines.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
