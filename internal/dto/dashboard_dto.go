package dto

import "github.com/shopspring/decimal"

// DashboardResponse combines the per-clinic summaries shown on the landing view.
type DashboardResponse struct {
	Inventory         InventoryStatsResponse `json:"inventory"`
	AppointmentsToday AppointmentCounts      `json:"appointments_today"`
	Billing           BillingSummary         `json:"billing"`
}

type AppointmentCounts struct {
	Scheduled int64 `json:"scheduled"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	NoShow    int64 `json:"no_show"`
}

type BillingSummary struct {
	OutstandingInvoices int64           `json:"outstanding_invoices"`
	OutstandingTotal    decimal.Decimal `json:"outstanding_total"`
}
