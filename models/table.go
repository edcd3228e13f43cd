package models

import "time"

const (
	TableFree     = "free"
	TableOccupied = "occupied"
)

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_restaurant_table" json:"restaurant_id"`
	TableNumber  int       `gorm:"not null;uniqueIndex:idx_restaurant_table" json:"table_number"`
	Status       string    `gorm:"type:varchar(20);not null;default:'free'" json:"status"`
	Capacity     int       `gorm:"not null;default:4" json:"capacity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ValidTableStatus(s string) bool {
	return s == TableFree || s == TableOccupied
}
