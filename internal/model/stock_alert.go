package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertLow = "low"
	AlertOut = "out"
)

// StockAlert is written by the alert worker when an adjustment leaves an item
// low or out of stock. At most one unresolved alert exists per item+level.
type StockAlert struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Level      string    `gorm:"type:varchar(10);not null"`
	Quantity   int       `gorm:"not null"` // quantity at alert time
	Resolved   bool      `gorm:"not null;default:false;index"`
	ResolvedAt *time.Time
	CreatedAt  time.Time

	Item *InventoryItem `gorm:"foreignKey:ItemID"`
}
