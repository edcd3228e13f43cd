package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"not null;index" json:"restaurant_id"`
	FullName     string          `gorm:"type:varchar(255);not null" json:"full_name"`
	Position     string          `gorm:"type:varchar(100)" json:"position"`
	PhoneNumber  string          `gorm:"type:varchar(50)" json:"phone_number"`
	Salary       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"salary"`
	HireDate     *time.Time      `gorm:"type:date" json:"hire_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
