package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceDraft     = "draft"
	InvoiceIssued    = "issued"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// Invoice totals are always the output of billing.ComputeTotals over the
// current items; they are recomputed on every item change while in draft.
type Invoice struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID        uuid.UUID `gorm:"type:uuid;not null;index"`
	PatientID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Number          int       `gorm:"not null;index"` // per-clinic sequence
	Status          string    `gorm:"type:varchar(20);not null;default:'draft';index"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate         *time.Time
	CreatedBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items    []InvoiceItem    `gorm:"foreignKey:InvoiceID"`
	Payments []InvoicePayment `gorm:"foreignKey:InvoiceID"`
	Patient  *Patient         `gorm:"foreignKey:PatientID"`
}

type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"` // quantity × unit price
	CreatedAt   time.Time
}

type InvoicePayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    string          `gorm:"type:varchar(20);not null"` // cash | card | transfer
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reference *string
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}
