package models

import "time"

// Base contains common columns for all tables. IDs are plain
// auto-increment integers; they are never derived from user input.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
