package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order status
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment status
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Payment method
const (
	PaymentMethodCash   = "cash"
	PaymentMethodQRCode = "qrcode"
)

// orderTransitions lists the status changes staff may apply. preparing and
// ready are valid stored values but nothing moves an order into them.
var orderTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusCancelled},
}

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	RestaurantID     uint            `gorm:"not null;index" json:"restaurant_id"`
	TableNumber      int             `gorm:"not null" json:"table_number"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus    string          `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	PaymentMethod    string          `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	PaymentReference string          `gorm:"type:varchar(100)" json:"payment_reference,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	OrderTime        time.Time       `gorm:"not null;index" json:"order_time"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsTerminal reports whether no further status change is possible.
func (o *Order) IsTerminal() bool {
	return len(orderTransitions[o.Status]) == 0
}

// Reference is the human-facing identifier printed on receipts.
func (o *Order) Reference() string {
	return fmt.Sprintf("ORD-%d-%06d", o.RestaurantID, o.ID)
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCash || m == PaymentMethodQRCode
}

// CanTransition reports whether an order in status from may be moved to to.
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
