package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	MenuID       uint            `gorm:"not null;index" json:"menu_id"`
	Menu         *Menu           `gorm:"foreignKey:MenuID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_order"`
	Notes        string          `gorm:"type:text" json:"notes"`
	MenuName     string          `gorm:"-" json:"menu_name,omitempty"`
	MenuImage    string          `gorm:"-" json:"menu_image,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Subtotal is quantity × price_at_order, unrounded.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FillMenuDetails copies the preloaded menu's name and image onto the item.
func (i *OrderItem) FillMenuDetails() {
	if i.Menu == nil {
		return
	}
	i.MenuName = i.Menu.Name
	i.MenuImage = i.Menu.ImageURL
}
