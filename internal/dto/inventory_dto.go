package dto

import "github.com/shopspring/decimal"

// ─── Items ───────────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	SKU             string          `json:"sku"          validate:"required,min=2,max=64"`
	Name            string          `json:"name"         validate:"required,min=2,max=120"`
	Category        string          `json:"category"     validate:"required"`
	Quantity        int             `json:"quantity"     validate:"min=0"`
	MinQuantity     int             `json:"min_quantity" validate:"min=0"`
	MaxQuantity     *int            `json:"max_quantity" validate:"omitempty,min=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"   validate:"required,min=0"`
	SupplierName    *string         `json:"supplier_name"`
	SupplierContact *string         `json:"supplier_contact"`
	BatchNumber     *string         `json:"batch_number"`
	ExpiryDate      *string         `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateItemRequest struct {
	Name            *string          `json:"name"         validate:"omitempty,min=2,max=120"`
	Category        *string          `json:"category"`
	MinQuantity     *int             `json:"min_quantity" validate:"omitempty,min=0"`
	MaxQuantity     *int             `json:"max_quantity" validate:"omitempty,min=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"   validate:"omitempty,min=0"`
	Status          *string          `json:"status"       validate:"omitempty,oneof=active inactive discontinued"`
	SupplierName    *string          `json:"supplier_name"`
	SupplierContact *string         `json:"supplier_contact"`
	BatchNumber     *string          `json:"batch_number"`
	ExpiryDate      *string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

type ItemFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Status   string `form:"status" validate:"omitempty,oneof=active inactive discontinued all"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ItemResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	MinQuantity     int             `json:"min_quantity"`
	MaxQuantity     *int            `json:"max_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Status          string          `json:"status"`
	SupplierName    *string         `json:"supplier_name"`
	SupplierContact *string         `json:"supplier_contact"`
	BatchNumber     *string         `json:"batch_number"`
	ExpiryDate      *string         `json:"expiry_date"`
}

type ItemListResponse struct {
	Data  []ItemResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Adjustments / ledger ────────────────────────────────────────────────────

type AdjustStockRequest struct {
	Type   string  `json:"type"   validate:"required,oneof=in out adjustment"`
	Delta  int     `json:"delta"  validate:"required"`
	Reason string  `json:"reason" validate:"required,min=2"`
	Notes  *string `json:"notes"`
}

type TransactionFilter struct {
	ItemID string `form:"item_id" validate:"omitempty,uuid"`
	Type   string `form:"type"    validate:"omitempty,oneof=in out adjustment"`
	From   string `form:"from"    validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"      validate:"omitempty,datetime=2006-01-02"`
	Page   int    `form:"page,default=1"    validate:"min=1"`
	Limit  int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type TransactionResponse struct {
	ID               string  `json:"id"`
	ItemID           string  `json:"item_id"`
	ItemName         string  `json:"item_name,omitempty"`
	Type             string  `json:"type"`
	Quantity         int     `json:"quantity"`
	PreviousQuantity int     `json:"previous_quantity"`
	NewQuantity      int     `json:"new_quantity"`
	Reason           string  `json:"reason"`
	Notes            *string `json:"notes"`
	Reference        *string `json:"reference"`
	PerformedBy      string  `json:"performed_by"`
	CreatedAt        string  `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ─── Stats ───────────────────────────────────────────────────────────────────

type CategoryStats struct {
	Category      string          `json:"category"`
	Count         int64           `json:"count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type InventoryStatsResponse struct {
	TotalItems      int64           `json:"total_items"`
	LowStockItems   int64           `json:"low_stock_items"`
	OutOfStockItems int64           `json:"out_of_stock_items"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Categories      []CategoryStats `json:"categories"`
}

// ─── Alerts ──────────────────────────────────────────────────────────────────

type StockAlertResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name,omitempty"`
	Level     string `json:"level"`
	Quantity  int    `json:"quantity"`
	Resolved  bool   `json:"resolved"`
	CreatedAt string `json:"created_at"`
}
