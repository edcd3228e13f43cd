package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/metrics"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type OrderItemInput struct {
	MenuID       uint            `json:"menu_id"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Notes        string          `json:"notes"`
}

type CreateOrderInput struct {
	TableNumber   int              `json:"table_number"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Status        string           `json:"status,omitempty"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	Items         []OrderItemInput `json:"items"`
}

type OrderFilter struct {
	Status string
	Page   int
	Limit  int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// validate checks everything that can be checked without the database.
func (in *CreateOrderInput) validate() error {
	if in.TableNumber < 1 {
		return utils.ValidationError("table_number must be a positive integer")
	}
	if len(in.Items) == 0 {
		return utils.ValidationError("order must contain at least one item")
	}
	if in.Status != "" && in.Status != models.OrderStatusPending {
		return utils.ValidationError("new orders must have status %q", models.OrderStatusPending)
	}
	if in.PaymentStatus != "" && in.PaymentStatus != models.PaymentStatusUnpaid {
		return utils.ValidationError("new orders must have payment_status %q", models.PaymentStatusUnpaid)
	}

	sum := decimal.Zero
	for i, item := range in.Items {
		if item.MenuID == 0 {
			return utils.ValidationError("items[%d]: menu_id is required", i)
		}
		if item.Quantity < 1 {
			return utils.ValidationError("items[%d]: quantity must be at least 1", i)
		}
		if item.PriceAtOrder.IsNegative() {
			return utils.ValidationError("items[%d]: price_at_order must not be negative", i)
		}
		sum = sum.Add(item.PriceAtOrder.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if !utils.Round2(sum).Equal(utils.Round2(in.TotalAmount)) {
		return utils.ValidationError("total_amount %s does not match item total %s",
			in.TotalAmount.StringFixed(2), utils.Round2(sum).StringFixed(2))
	}
	return nil
}

// Create inserts the order and its items in one transaction. Nothing is
// written if any item is rejected.
func (s *OrderService) Create(ctx context.Context, restaurantID uint, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	order := models.Order{
		RestaurantID:  restaurantID,
		TableNumber:   in.TableNumber,
		TotalAmount:   utils.Round2(in.TotalAmount),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		OrderTime:     time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.Where("restaurant_id = ? AND table_number = ?", restaurantID, in.TableNumber).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ValidationError("table %d does not exist", in.TableNumber)
			}
			return fmt.Errorf("failed to find table: %w", err)
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, item := range in.Items {
			var menu models.Menu
			if err := tx.Where("id = ? AND restaurant_id = ?", item.MenuID, restaurantID).
				First(&menu).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.ValidationError("items[%d]: menu %d does not exist", i, item.MenuID)
				}
				return fmt.Errorf("failed to find menu: %w", err)
			}
			if !menu.IsAvailable {
				return utils.ValidationError("items[%d]: %s is not available", i, menu.Name)
			}

			orderItem := models.OrderItem{
				OrderID:      order.ID,
				MenuID:       menu.ID,
				Quantity:     item.Quantity,
				PriceAtOrder: item.PriceAtOrder,
				Notes:        item.Notes,
				MenuName:     menu.Name,
				MenuImage:    menu.ImageURL,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			order.Items = append(order.Items, orderItem)
		}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, utils.InternalError("failed to create order", err)
	}

	metrics.OrdersCreated.Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"table_number": order.TableNumber,
		"total":        order.TotalAmount.StringFixed(2),
	}).Info("order created")
	return &order, nil
}

func (s *OrderService) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.Menu")
}

func fillItems(order *models.Order) {
	for i := range order.Items {
		order.Items[i].FillMenuDetails()
	}
}

// Get returns an order of the restaurant with its items.
func (s *OrderService) Get(ctx context.Context, restaurantID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.withItems(s.db.WithContext(ctx)).
		Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error
	if err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
	}
	fillItems(&order)
	return &order, nil
}

// List returns orders newest first. total is the count before paging.
func (s *OrderService) List(ctx context.Context, restaurantID uint, filter OrderFilter) (orders []models.Order, total int64, err error) {
	if filter.Status != "" && !models.ValidOrderStatus(filter.Status) {
		return nil, 0, utils.ValidationError("unknown status %q", filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Order{}).Where("restaurant_id = ?", restaurantID)
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, utils.InternalError("failed to count orders", err)
	}

	err = s.withItems(scoped()).
		Order("order_time DESC").Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, utils.InternalError("failed to list orders", err)
	}
	for i := range orders {
		fillItems(&orders[i])
	}
	return orders, total, nil
}

// Items returns the order's items with menu details.
func (s *OrderService) Items(ctx context.Context, restaurantID, orderID uint) ([]models.OrderItem, error) {
	order, err := s.Get(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

// UpdateStatus applies a staff transition. Only pending orders move, and only
// to completed or cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, restaurantID, orderID uint, to string) (*models.Order, error) {
	if !models.ValidOrderStatus(to) {
		return nil, utils.ValidationError("unknown status %q", to)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND restaurant_id = ?", orderID, restaurantID).First(&order).Error; err != nil {
			return utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
		}
		if !models.CanTransition(order.Status, to) {
			return utils.ConflictError("cannot move order %d from %s to %s", orderID, order.Status, to)
		}

		// The status guard makes a concurrent transition lose cleanly.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
		if res.Error != nil {
			return fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.ConflictError("order %d was changed by someone else", orderID)
		}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, utils.InternalError("failed to update order", err)
	}

	metrics.OrderTransitions.WithLabelValues(to).Inc()
	return s.Get(ctx, restaurantID, orderID)
}

func (s *OrderService) Delete(ctx context.Context, restaurantID, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND restaurant_id = ?", orderID, restaurantID).First(&order).Error; err != nil {
			return utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.Payment{}).Error; err != nil {
			return utils.InternalError("failed to delete payments", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return utils.InternalError("failed to delete order items", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return utils.InternalError("failed to delete order", err)
		}
		return nil
	})
}
