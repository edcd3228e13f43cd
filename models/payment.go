package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records one confirmed payment for an order. The order's
// payment_status is authoritative; payments are the audit trail behind it.
type Payment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	Order       *Order          `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Method      string          `gorm:"type:varchar(20);not null" json:"method"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	ReferenceID string          `gorm:"type:varchar(100);not null" json:"reference_id"`
	ConfirmedBy *uint           `json:"confirmed_by,omitempty"`
	PaidAt      time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`
}
