package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Menu struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"not null;index" json:"restaurant_id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Category     string          `gorm:"type:varchar(100);index" json:"category"`
	ImageURL     string          `gorm:"type:varchar(255)" json:"image_url"`
	IsAvailable  bool            `gorm:"not null;default:true" json:"is_available"`
	Options      []MenuOption    `gorm:"foreignKey:MenuID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
