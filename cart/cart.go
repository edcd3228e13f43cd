// Package cart holds a customer's pending selection before checkout. A Cart
// belongs to one ordering session and is not safe for concurrent use.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ordering/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
)

// Item is one cart line. PriceAtOrder is the menu price when the line was added.
type Item struct {
	MenuID       uint            `json:"menu_id"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"image_url,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Notes        string          `json:"notes"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(menuID uint) int {
	for i := range c.items {
		if c.items[i].MenuID == menuID {
			return i
		}
	}
	return -1
}

// Add puts one more of menu in the cart. An existing line keeps its price and notes.
func (c *Cart) Add(menu models.Menu) {
	if i := c.index(menu.ID); i >= 0 {
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, Item{
		MenuID:       menu.ID,
		Name:         menu.Name,
		ImageURL:     menu.ImageURL,
		Quantity:     1,
		PriceAtOrder: menu.BasePrice,
	})
}

// Update sets a line's quantity and notes. The cart is unchanged on error.
func (c *Cart) Update(menuID uint, quantity int, notes string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i := c.index(menuID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items[i].Quantity = quantity
	c.items[i].Notes = notes
	return nil
}

// Remove drops a line. Removing an absent line is a no-op.
func (c *Cart) Remove(menuID uint) {
	if i := c.index(menuID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums the unrounded line subtotals and rounds once to two decimals.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.Subtotal())
	}
	return sum.Round(2)
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Clear() {
	c.items = nil
}
