package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/metrics"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/payment"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// PaymentService moves orders from unpaid to paid.
type PaymentService struct {
	db            *gorm.DB
	payee         string
	webhookSecret string
}

func NewPaymentService(db *gorm.DB, payee, webhookSecret string) *PaymentService {
	return &PaymentService{
		db:            db,
		payee:         payee,
		webhookSecret: webhookSecret,
	}
}

type QRCode struct {
	OrderID    uint            `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Payee      string          `json:"payee"`
	QRImageURL string          `json:"qr_image_url"`
}

// PaymentResult is the order after a payment request and whether this request
// was the one that marked it paid.
type PaymentResult struct {
	Order   *models.Order
	Changed bool
}

// QRCode returns the QR image the customer scans to pay an unpaid order.
func (s *PaymentService) QRCode(ctx context.Context, restaurantID, orderID uint) (*QRCode, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error; err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
	}
	if order.IsPaid() {
		return nil, utils.ConflictError("order %d is already paid", orderID)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, utils.ConflictError("order %d is cancelled", orderID)
	}

	return &QRCode{
		OrderID:    order.ID,
		Amount:     order.TotalAmount,
		Payee:      s.payee,
		QRImageURL: payment.QRImageURL(s.payee, order.TotalAmount),
	}, nil
}

// MarkPaid records a payment. Marking an already paid order is a no-op.
func (s *PaymentService) MarkPaid(ctx context.Context, restaurantID, orderID uint, method, reference string, confirmedBy *uint) (*PaymentResult, error) {
	if method == "" {
		method = models.PaymentMethodCash
	}
	if !models.ValidPaymentMethod(method) {
		return nil, utils.ValidationError("unknown payment method %q", method)
	}
	if reference == "" {
		reference = uuid.NewString()
	}

	var result PaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND restaurant_id = ?", orderID, restaurantID).First(&order).Error; err != nil {
			return utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
		}
		if order.IsPaid() {
			return nil
		}
		if order.Status == models.OrderStatusCancelled {
			return utils.ConflictError("order %d is cancelled", orderID)
		}

		now := time.Now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusUnpaid).
			Updates(map[string]interface{}{
				"payment_status":    models.PaymentStatusPaid,
				"payment_method":    method,
				"payment_reference": reference,
				"paid_at":           now,
				"updated_at":        now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update payment status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Paid concurrently by another request.
			return nil
		}

		record := models.Payment{
			OrderID:     orderID,
			Method:      method,
			Amount:      order.TotalAmount,
			ReferenceID: reference,
			ConfirmedBy: confirmedBy,
			PaidAt:      now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		result.Changed = true
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, utils.InternalError("failed to mark order paid", err)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result.Order = order

	if result.Changed {
		metrics.PaymentsConfirmed.WithLabelValues(method).Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"order_id": orderID,
			"method":   method,
			"amount":   order.TotalAmount.StringFixed(2),
		}).Info("order paid")
	}
	return &result, nil
}

// MarkUnpaid refuses to undo a payment. Unpaid orders are returned unchanged.
func (s *PaymentService) MarkUnpaid(ctx context.Context, restaurantID, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error; err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
	}
	if order.IsPaid() {
		return nil, utils.ConflictError("order %d is already paid and cannot be reverted", orderID)
	}
	return s.load(ctx, orderID)
}

// ConfirmWebhook handles a signed settlement notice from the QR payment provider.
func (s *PaymentService) ConfirmWebhook(ctx context.Context, c payment.Confirmation) (*PaymentResult, error) {
	if !c.Verify(s.webhookSecret) {
		utils.ErrorLogger.WithField("order_id", c.OrderID).Warn("payment webhook with invalid signature")
		return nil, utils.UnauthorizedError("invalid signature")
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, c.OrderID).Error; err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", c.OrderID))
	}
	if !utils.Round2(c.Amount).Equal(utils.Round2(order.TotalAmount)) {
		return nil, utils.ValidationError("amount %s does not match order total %s",
			c.Amount.StringFixed(2), order.TotalAmount.StringFixed(2))
	}

	return s.MarkPaid(ctx, order.RestaurantID, order.ID, models.PaymentMethodQRCode, c.Reference, nil)
}

// Payments lists the confirmations recorded for an order.
func (s *PaymentService) Payments(ctx context.Context, restaurantID, orderID uint) ([]models.Payment, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error; err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
	}

	var payments []models.Payment
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("paid_at ASC").Find(&payments).Error; err != nil {
		return nil, utils.InternalError("failed to list payments", err)
	}
	return payments, nil
}

func (s *PaymentService) load(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Menu").
		First(&order, orderID).Error
	if err != nil {
		return nil, utils.NotFoundOr(err, fmt.Sprintf("order %d", orderID))
	}
	fillItems(&order)
	return &order, nil
}
