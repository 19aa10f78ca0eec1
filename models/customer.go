package models

import (
	"time"
)

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(11);uniqueIndex;not null" json:"phone"`
	Email     string    `gorm:"type:varchar(100)" json:"email"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
