package models

import (
	"time"
)

// Booking reserves a table for a user at a date and time.
type Booking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_bookings_user_id" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"-"`
	TableID     uint      `gorm:"not null;index:idx_bookings_table_id" json:"table_id"`
	Table       *Table    `gorm:"foreignKey:TableID" json:"-"`
	BookingDate time.Time `gorm:"type:date;not null;index:idx_bookings_date" json:"booking_date"`
	BookingTime string    `gorm:"type:time;not null" json:"booking_time"`
	GuestsCount int       `gorm:"not null" json:"guests_count"`
	Status      string    `gorm:"size:20;default:pending;index:idx_bookings_status" json:"status"`
	Notes       string    `gorm:"type:text;default:''" json:"notes"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}
