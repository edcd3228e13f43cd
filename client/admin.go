package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeremiapane/restaurant-ordering/models"
)

var (
	ErrTransitionDeclined = errors.New("transition declined")
	ErrInvalidTransition  = errors.New("transition not allowed")
)

// ConfirmFunc asks the operator to confirm moving order to status.
type ConfirmFunc func(order models.Order, status string) bool

// OrderBoard is the admin's view of the order list.
type OrderBoard struct {
	client *Client

	mu     sync.Mutex
	orders []models.Order
	filter string
}

func NewOrderBoard(client *Client) *OrderBoard {
	return &OrderBoard{client: client}
}

// Refresh reloads the list with the given status filter ("" for all).
func (b *OrderBoard) Refresh(ctx context.Context, status string) ([]models.Order, error) {
	orders, err := b.client.Orders(ctx, status)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = orders
	b.filter = status
	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out, nil
}

func (b *OrderBoard) Orders() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

// Transition moves a pending order to completed or cancelled after confirm
// approves it, then reloads the whole list.
func (b *OrderBoard) Transition(ctx context.Context, orderID uint, status string, confirm ConfirmFunc) error {
	b.mu.Lock()
	var order *models.Order
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			o := b.orders[i]
			order = &o
			break
		}
	}
	filter := b.filter
	b.mu.Unlock()

	if order == nil || order.IsTerminal() || !models.CanTransition(order.Status, status) {
		return ErrInvalidTransition
	}
	if confirm != nil && !confirm(*order, status) {
		return ErrTransitionDeclined
	}

	if _, err := b.client.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if !IsConflict(err) {
			return err
		}
		// Another admin moved the order first; show what they did.
		if _, refreshErr := b.Refresh(ctx, filter); refreshErr != nil {
			return refreshErr
		}
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	_, err := b.Refresh(ctx, filter)
	return err
}
