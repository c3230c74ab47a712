package models

import "time"

// Base — общие поля для всех SQL-таблиц
type Base struct {
	ID        string `gorm:"primaryKey;size:24"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
