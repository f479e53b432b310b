package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventory item statuses. Status is independent of quantity: a discontinued
// item may still hold stock.
const (
	ItemActive       = "active"
	ItemInactive     = "inactive"
	ItemDiscontinued = "discontinued"
)

// InventoryItem holds the current quantity, which is a cache of the ledger's
// running total. Quantity is mutated exclusively through the adjustment
// service; items are soft-retired via Status, never deleted while
// transactions reference them.
type InventoryItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_items_clinic_sku,priority:1"`
	SKU         string    `gorm:"not null;uniqueIndex:idx_items_clinic_sku,priority:2"`
	Name        string    `gorm:"index;not null"`
	Category    string    `gorm:"not null;index"`
	Quantity    int       `gorm:"not null;default:0"`
	MinQuantity int       `gorm:"not null;default:5"`
	MaxQuantity *int
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active'"`

	SupplierName    *string
	SupplierContact *string
	BatchNumber     *string
	ExpiryDate      *time.Time

	CreatedBy uuid.UUID  `gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
