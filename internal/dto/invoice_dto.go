package dto

import "github.com/shopspring/decimal"

type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required,min=1"`
	Quantity    int             `json:"quantity"    validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"  validate:"required,min=0"`
}

type CreateInvoiceRequest struct {
	PatientID       string               `json:"patient_id"       validate:"required,uuid"`
	TaxPercent      decimal.Decimal      `json:"tax_percent"      validate:"min=0,max=100"`
	DiscountPercent decimal.Decimal      `json:"discount_percent" validate:"min=0,max=100"`
	DueDate         *string              `json:"due_date"         validate:"omitempty,datetime=2006-01-02"`
	Items           []InvoiceItemRequest `json:"items"            validate:"required,min=1,dive"`
}

// UpdateInvoiceItemsRequest replaces a draft invoice's line items; totals are
// recomputed server-side.
type UpdateInvoiceItemsRequest struct {
	Items []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type RecordPaymentRequest struct {
	Method    string          `json:"method"    validate:"required,oneof=cash card transfer"`
	Amount    decimal.Decimal `json:"amount"    validate:"required"`
	Reference *string         `json:"reference"`
}

type InvoiceFilter struct {
	PatientID string `form:"patient_id" validate:"omitempty,uuid"`
	Status    string `form:"status"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type InvoicePaymentResponse struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference"`
	CreatedAt string          `json:"created_at"`
}

type InvoiceResponse struct {
	ID              string                   `json:"id"`
	Number          int                      `json:"number"`
	PatientID       string                   `json:"patient_id"`
	PatientName     string                   `json:"patient_name,omitempty"`
	Status          string                   `json:"status"`
	TaxPercent      decimal.Decimal          `json:"tax_percent"`
	DiscountPercent decimal.Decimal          `json:"discount_percent"`
	Subtotal        decimal.Decimal          `json:"subtotal"`
	TaxAmount       decimal.Decimal          `json:"tax_amount"`
	DiscountAmount  decimal.Decimal          `json:"discount_amount"`
	Total           decimal.Decimal          `json:"total"`
	AmountPaid      decimal.Decimal          `json:"amount_paid"`
	DueDate         *string                  `json:"due_date"`
	Items           []InvoiceItemResponse    `json:"items"`
	Payments        []InvoicePaymentResponse `json:"payments"`
	CreatedAt       string                   `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
