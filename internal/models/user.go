package models

import (
	"time"
)

// User is a customer or staff account of the booking system.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex:idx_users_username;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex:idx_users_email;not null" json:"email"`
	FullName  *string   `gorm:"size:100" json:"full_name"`
	Phone     *string   `gorm:"size:20" json:"phone"`
	Role      string    `gorm:"size:20;default:client" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName ensures consistent table naming
func (User) TableName() string {
	return "users"
}
