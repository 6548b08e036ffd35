package models

import (
	"time"
)

// Table is a bookable restaurant table.
type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber string    `gorm:"size:50;uniqueIndex:idx_tables_table_number;not null" json:"table_number"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Location    *string   `gorm:"size:100" json:"location"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Table) TableName() string {
	return "tables"
}
