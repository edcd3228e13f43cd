package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OptionSingleChoice   = "single_choice"
	OptionMultipleChoice = "multiple_choice"
)

// MenuOption describes a variant or add-on of a menu. Options are stored and
// listed but never priced into an order.
type MenuOption struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MenuID          uint            `gorm:"not null;index" json:"menu_id"`
	OptionGroupName string          `gorm:"type:varchar(100);not null" json:"option_group_name"`
	OptionType      string          `gorm:"type:varchar(20);not null;default:'single_choice'" json:"option_type"`
	OptionName      string          `gorm:"type:varchar(100);not null" json:"option_name"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price_adjustment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ValidOptionType(t string) bool {
	return t == OptionSingleChoice || t == OptionMultipleChoice
}
