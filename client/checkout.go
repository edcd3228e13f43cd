package client

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-ordering/cart"
	"github.com/yeremiapane/restaurant-ordering/models"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTableNumber = errors.New("table number must be a positive integer")
)

// Checkout submits the cart as a new order for tableNumber. The cart is
// cleared only when the server accepted the order.
func (c *Client) Checkout(ctx context.Context, tableNumber int, ct *cart.Cart) (uint, error) {
	if ct == nil || ct.IsEmpty() {
		return 0, ErrEmptyCart
	}
	if tableNumber < 1 {
		return 0, ErrInvalidTableNumber
	}

	lines := ct.Items()
	req := OrderRequest{
		TableNumber:   tableNumber,
		TotalAmount:   ct.Total(),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		Items:         make([]OrderItemRequest, 0, len(lines)),
	}
	for _, l := range lines {
		req.Items = append(req.Items, OrderItemRequest{
			MenuID:       l.MenuID,
			Quantity:     l.Quantity,
			PriceAtOrder: l.PriceAtOrder,
			Notes:        l.Notes,
		})
	}

	orderID, err := c.CreateOrder(ctx, req)
	if err != nil {
		return 0, err
	}
	ct.Clear()
	return orderID, nil
}
