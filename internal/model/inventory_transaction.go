package model

import (
	"time"

	"github.com/google/uuid"
)

// Adjustment types. "in" adds |delta|, "out" subtracts |delta|, "adjustment"
// applies the signed delta as given.
const (
	TxnIn         = "in"
	TxnOut        = "out"
	TxnAdjustment = "adjustment"
)

// InventoryTransaction is one ledger entry: the signed quantity applied to an
// item plus before/after snapshots. Rows are append-only — created in the
// same database transaction as the item update, never modified or deleted.
// Invariant: PreviousQuantity + Quantity == NewQuantity.
type InventoryTransaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"type:varchar(20);not null"`
	Quantity         int       `gorm:"not null"` // signed delta as applied
	PreviousQuantity int       `gorm:"not null"`
	NewQuantity      int       `gorm:"not null"`
	Reason           string    `gorm:"not null"`
	Notes            *string
	Reference        *uuid.UUID `gorm:"type:uuid"` // e.g. prescription id when dispensing
	PerformedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt        time.Time

	Item *InventoryItem `gorm:"foreignKey:ItemID"`
}

// TableName overrides GORM's pluralization (inventory_transactions is fine,
// but keep it explicit next to the index-heavy schema).
func (InventoryTransaction) TableName() string { return "inventory_transactions" }
