package service

import (
	"context"
	"errors"
	"time"

	"clinicflow/internal/apperr"
	"clinicflow/internal/dto"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillingService interface {
	CreateInvoice(ctx context.Context, actor Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, actor Actor, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, actor Actor, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	UpdateItems(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateInvoiceItemsRequest) (*dto.InvoiceResponse, error)
	Issue(ctx context.Context, actor Actor, id uuid.UUID) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
	RecordPayment(ctx context.Context, actor Actor, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error)
}

type billingService struct {
	repo        repository.InvoiceRepository
	clinicRepo  repository.ClinicRepository
	patientRepo repository.PatientRepository
}

func NewBillingService(
	repo repository.InvoiceRepository,
	clinicRepo repository.ClinicRepository,
	patientRepo repository.PatientRepository,
) BillingService {
	return &billingService{repo: repo, clinicRepo: clinicRepo, patientRepo: patientRepo}
}

// Totals is the monetary breakdown of an invoice.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals derives an invoice's amounts from its line items:
//
//	subtotal = Σ quantity × unit price
//	tax      = subtotal × taxPercent/100, rounded to 2 decimals
//	discount = subtotal × discountPercent/100, rounded to 2 decimals
//	total    = subtotal + tax − discount
//
// Tax and discount are rounded half-up individually before the total is
// assembled, so total always equals the sum of its displayed components.
func ComputeTotals(items []model.InvoiceItem, taxPercent, discountPercent decimal.Decimal) Totals {
	hundred := decimal.NewFromInt(100)

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(taxPercent).Div(hundred).Round(2)
	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	total := subtotal.Add(tax).Sub(discount)

	return Totals{Subtotal: subtotal, TaxAmount: tax, DiscountAmount: discount, Total: total}
}

func buildInvoiceItems(reqs []dto.InvoiceItemRequest) []model.InvoiceItem {
	items := make([]model.InvoiceItem, 0, len(reqs))
	for _, r := range reqs {
		amount := r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))).Round(2)
		items = append(items, model.InvoiceItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Amount:      amount,
		})
	}
	return items
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (s *billingService) CreateInvoice(ctx context.Context, actor Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.Validation("patient_id is not a valid uuid")
	}
	if _, err := s.patientRepo.FindByID(ctx, clinicID, patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Persistence("could not load patient", err)
	}

	items := buildInvoiceItems(req.Items)
	totals := ComputeTotals(items, req.TaxPercent, req.DiscountPercent)

	inv := &model.Invoice{
		ClinicID:        clinicID,
		PatientID:       patientID,
		Status:          model.InvoiceDraft,
		TaxPercent:      req.TaxPercent,
		DiscountPercent: req.DiscountPercent,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		DiscountAmount:  totals.DiscountAmount,
		Total:           totals.Total,
		CreatedBy:       actor.ID,
		Items:           items,
	}
	if req.DueDate != nil {
		t, perr := time.Parse("2006-01-02", *req.DueDate)
		if perr != nil {
			return nil, apperr.Validation("due_date must be YYYY-MM-DD")
		}
		inv.DueDate = &t
	}

	// The invoice number is a per-clinic sequence: lock the clinic row so two
	// concurrent creates cannot read the same MAX.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.clinicRepo.LockTx(tx, clinicID); err != nil {
			return apperr.Persistence("could not lock clinic for numbering", err)
		}
		number, err := s.repo.NextNumberTx(tx, clinicID)
		if err != nil {
			return apperr.Persistence("could not allocate invoice number", err)
		}
		inv.Number = number
		if err := s.repo.CreateTx(tx, inv); err != nil {
			return apperr.Persistence("could not create invoice", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return invoiceToResponse(inv), nil
}

func (s *billingService) GetInvoice(ctx context.Context, actor Actor, id uuid.UUID) (*dto.InvoiceResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	inv, err := s.findInvoice(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	return invoiceToResponse(inv), nil
}

func (s *billingService) ListInvoices(ctx context.Context, actor Actor, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	invoices, total, err := s.repo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list invoices", err)
	}
	data := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		data = append(data, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateItems replaces a draft invoice's line items and recomputes totals.
// Issued, paid and cancelled invoices are immutable.
func (s *billingService) UpdateItems(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateInvoiceItemsRequest) (*dto.InvoiceResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	inv, err := s.findInvoice(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceDraft {
		return nil, apperr.InvalidOperation("only draft invoices can be edited (status is %s)", inv.Status)
	}

	items := buildInvoiceItems(req.Items)
	totals := ComputeTotals(items, inv.TaxPercent, inv.DiscountPercent)
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.DiscountAmount = totals.DiscountAmount
	inv.Total = totals.Total

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.ReplaceItemsTx(tx, inv, items); err != nil {
			return apperr.Persistence("could not replace invoice items", err)
		}
		if err := s.repo.UpdateTotalsTx(tx, inv); err != nil {
			return apperr.Persistence("could not update invoice totals", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	inv.Items = items
	return invoiceToResponse(inv), nil
}

func (s *billingService) Issue(ctx context.Context, actor Actor, id uuid.UUID) (*dto.InvoiceResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	inv, err := s.findInvoice(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceDraft {
		return nil, apperr.InvalidOperation("only draft invoices can be issued (status is %s)", inv.Status)
	}
	if len(inv.Items) == 0 {
		return nil, apperr.InvalidOperation("an invoice needs at least one line item before issuing")
	}
	if err := s.repo.UpdateStatus(ctx, inv.ID, model.InvoiceIssued); err != nil {
		return nil, apperr.Persistence("could not issue invoice", err)
	}
	inv.Status = model.InvoiceIssued
	return invoiceToResponse(inv), nil
}

func (s *billingService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return err
	}
	inv, err := s.findInvoice(ctx, clinicID, id)
	if err != nil {
		return err
	}
	switch inv.Status {
	case model.InvoicePaid:
		return apperr.InvalidOperation("paid invoices cannot be cancelled")
	case model.InvoiceCancelled:
		return apperr.InvalidOperation("invoice is already cancelled")
	}
	if len(inv.Payments) > 0 {
		return apperr.InvalidOperation("invoices with recorded payments cannot be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, inv.ID, model.InvoiceCancelled); err != nil {
		return apperr.Persistence("could not cancel invoice", err)
	}
	return nil
}

// RecordPayment registers a payment against an issued invoice. Overpayment is
// rejected; when the running total reaches the invoice total the invoice
// flips to paid in the same transaction.
func (s *billingService) RecordPayment(ctx context.Context, actor Actor, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("payment amount must be positive")
	}

	// Balance checks run against a row-locked read inside the transaction so
	// two concurrent payments serialize instead of both passing the check.
	var inv *model.Invoice
	var payment *model.InvoicePayment
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		inv, err = s.repo.FindByIDTxLocked(tx, clinicID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invoice not found")
			}
			return apperr.Persistence("could not load invoice", err)
		}
		if inv.Status != model.InvoiceIssued {
			return apperr.InvalidOperation("payments can only be recorded on issued invoices (status is %s)", inv.Status)
		}

		remaining := inv.Total.Sub(amountPaid(inv))
		if req.Amount.GreaterThan(remaining) {
			return apperr.InvalidOperation("payment of %s exceeds the remaining balance of %s", req.Amount, remaining)
		}

		payment = &model.InvoicePayment{
			InvoiceID: inv.ID,
			Method:    req.Method,
			Amount:    req.Amount,
			Reference: req.Reference,
			CreatedBy: actor.ID,
		}
		if err := s.repo.CreatePaymentTx(tx, payment); err != nil {
			return apperr.Persistence("could not record payment", err)
		}
		if req.Amount.Equal(remaining) {
			if err := s.repo.UpdateStatusTx(tx, inv.ID, model.InvoicePaid); err != nil {
				return apperr.Persistence("could not mark invoice paid", err)
			}
			inv.Status = model.InvoicePaid
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	inv.Payments = append(inv.Payments, *payment)
	return invoiceToResponse(inv), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *billingService) findInvoice(ctx context.Context, clinicID, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice not found")
		}
		return nil, apperr.Persistence("could not load invoice", err)
	}
	return inv, nil
}

func amountPaid(inv *model.Invoice) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range inv.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, dto.InvoiceItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	payments := make([]dto.InvoicePaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, dto.InvoicePaymentResponse{
			ID:        p.ID.String(),
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: p.Reference,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}
	var due *string
	if inv.DueDate != nil {
		d := inv.DueDate.Format("2006-01-02")
		due = &d
	}
	patientName := ""
	if inv.Patient != nil {
		patientName = inv.Patient.Name
	}
	return &dto.InvoiceResponse{
		ID:              inv.ID.String(),
		Number:          inv.Number,
		PatientID:       inv.PatientID.String(),
		PatientName:     patientName,
		Status:          inv.Status,
		TaxPercent:      inv.TaxPercent,
		DiscountPercent: inv.DiscountPercent,
		Subtotal:        inv.Subtotal,
		TaxAmount:       inv.TaxAmount,
		DiscountAmount:  inv.DiscountAmount,
		Total:           inv.Total,
		AmountPaid:      amountPaid(inv),
		DueDate:         due,
		Items:           items,
		Payments:        payments,
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
	}
}
