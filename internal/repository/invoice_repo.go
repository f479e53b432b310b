package repository

import (
	"context"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Invoice, error)
	// FindByIDTxLocked loads the invoice with a FOR UPDATE row lock so payment
	// balance checks serialize with other writers in the same transaction.
	FindByIDTxLocked(tx *gorm.DB, clinicID, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	// NextNumberTx returns MAX(number)+1 for the clinic. Callers must hold the
	// clinic row lock (ClinicRepository.LockTx) in the same transaction.
	NextNumberTx(tx *gorm.DB, clinicID uuid.UUID) (int, error)
	ReplaceItemsTx(tx *gorm.DB, inv *model.Invoice, items []model.InvoiceItem) error
	UpdateTotalsTx(tx *gorm.DB, inv *model.Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CreatePaymentTx(tx *gorm.DB, p *model.InvoicePayment) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	OutstandingSummary(ctx context.Context, clinicID uuid.UUID) (int64, decimal.Decimal, error)
	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Preload("Payments").Preload("Patient").
		Where("clinic_id = ?", clinicID).First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByIDTxLocked(tx *gorm.DB, clinicID, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	// FOR UPDATE cannot lock a joined preload, so the associations load in
	// follow-up queries under the same transaction.
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("clinic_id = ?", clinicID).First(&inv, id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", inv.ID).Find(&inv.Items).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", inv.ID).Find(&inv.Payments).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("clinic_id = ?", clinicID)

	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var invoices []model.Invoice
	err := q.Preload("Items").Preload("Payments").Preload("Patient").
		Order("number DESC").Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepo) NextNumberTx(tx *gorm.DB, clinicID uuid.UUID) (int, error) {
	var num int
	err := tx.Raw("SELECT COALESCE(MAX(number), 0) + 1 FROM invoices WHERE clinic_id = ?", clinicID).
		Scan(&num).Error
	return num, err
}

func (r *invoiceRepo) ReplaceItemsTx(tx *gorm.DB, inv *model.Invoice, items []model.InvoiceItem) error {
	if err := tx.Where("invoice_id = ?", inv.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].InvoiceID = inv.ID
	}
	return tx.Create(&items).Error
}

func (r *invoiceRepo) UpdateTotalsTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"subtotal":        inv.Subtotal,
		"tax_amount":      inv.TaxAmount,
		"discount_amount": inv.DiscountAmount,
		"total":           inv.Total,
	}).Error
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ?", id).Update("status", status).Error
}

func (r *invoiceRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).Update("status", status).Error
}

func (r *invoiceRepo) CreatePaymentTx(tx *gorm.DB, p *model.InvoicePayment) error {
	return tx.Create(p).Error
}

func (r *invoiceRepo) OutstandingSummary(ctx context.Context, clinicID uuid.UUID) (int64, decimal.Decimal, error) {
	type row struct {
		Count int64
		Total decimal.Decimal
	}
	var res row
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("clinic_id = ? AND status = ?", clinicID, model.InvoiceIssued).
		Scan(&res).Error
	return res.Count, res.Total, err
}
