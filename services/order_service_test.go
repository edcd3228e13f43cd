package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.restaurant.ID, orderInput(2, line(f.burger, 2), line(f.salad, 2)))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "160.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)

	got, err := svc.Get(ctx, f.restaurant.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Burger", got.Items[0].MenuName)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)

	wrongTotal := orderInput(1, line(f.burger, 1))
	wrongTotal.TotalAmount = decimal.RequireFromString("49.00")

	forcedStatus := orderInput(1, line(f.burger, 1))
	forcedStatus.Status = models.OrderStatusCompleted

	forcedPaid := orderInput(1, line(f.burger, 1))
	forcedPaid.PaymentStatus = models.PaymentStatusPaid

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{"no items", CreateOrderInput{TableNumber: 1}},
		{"table zero", orderInput(0, line(f.burger, 1))},
		{"unknown table", orderInput(42, line(f.burger, 1))},
		{"zero quantity", orderInput(1, line(f.burger, 0))},
		{"negative price", orderInput(1, OrderItemInput{MenuID: f.burger.ID, Quantity: 1, PriceAtOrder: decimal.NewFromInt(-1)})},
		{"unknown menu", orderInput(1, OrderItemInput{MenuID: 9999, Quantity: 1, PriceAtOrder: decimal.NewFromInt(1)})},
		{"unavailable menu", orderInput(1, line(f.soldOut, 1))},
		{"total mismatch", wrongTotal},
		{"status not pending", forcedStatus},
		{"payment not unpaid", forcedPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), f.restaurant.ID, tt.input)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
		})
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderRollsBackOnBadItem(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)

	// The first item is valid and gets inserted before the second one fails.
	in := orderInput(1, line(f.burger, 1), line(f.soldOut, 1))
	_, err := svc.Create(context.Background(), f.restaurant.ID, in)
	require.Error(t, err)

	var orders, items int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestUpdateStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.restaurant.ID, orderInput(1, line(f.burger, 1)))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, f.restaurant.ID, order.ID, models.OrderStatusPreparing)
	assert.Equal(t, http.StatusConflict, utils.StatusFor(err))

	_, err = svc.UpdateStatus(ctx, f.restaurant.ID, order.ID, "teleported")
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))

	updated, err := svc.UpdateStatus(ctx, f.restaurant.ID, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, updated.Status)

	_, err = svc.UpdateStatus(ctx, f.restaurant.ID, order.ID, models.OrderStatusCancelled)
	assert.Equal(t, http.StatusConflict, utils.StatusFor(err))

	_, err = svc.UpdateStatus(ctx, f.restaurant.ID, 9999, models.OrderStatusCancelled)
	assert.Equal(t, http.StatusNotFound, utils.StatusFor(err))
}

func TestGetOrderIsRestaurantScoped(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.restaurant.ID, orderInput(1, line(f.burger, 1)))
	require.NoError(t, err)

	_, err = svc.Get(ctx, f.restaurant.ID+1, order.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusFor(err))
}

func TestListOrders(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		o, err := svc.Create(ctx, f.restaurant.ID, orderInput(1, line(f.salad, i+1)))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, err := svc.UpdateStatus(ctx, f.restaurant.ID, ids[0], models.OrderStatusCancelled)
	require.NoError(t, err)

	orders, total, err := svc.List(ctx, f.restaurant.ID, OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID, "newest first")
	assert.Equal(t, "Salad", orders[0].Items[0].MenuName)

	pending, total, err := svc.List(ctx, f.restaurant.ID, OrderFilter{Status: models.OrderStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	page, total, err := svc.List(ctx, f.restaurant.ID, OrderFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	_, _, err = svc.List(ctx, f.restaurant.ID, OrderFilter{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
}

func TestDeleteOrder(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	order, err := svc.Create(ctx, f.restaurant.ID, orderInput(1, line(f.burger, 1)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, f.restaurant.ID, order.ID))

	var items int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items)
	assert.Zero(t, items)

	err = svc.Delete(ctx, f.restaurant.ID, order.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusFor(err))
}
