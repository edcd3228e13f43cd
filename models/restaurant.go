package models

import "time"

type Restaurant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	PhoneNumber string    `gorm:"type:varchar(50)" json:"phone_number"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
