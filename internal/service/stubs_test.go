package service_test

// In-memory repository stubs shared by the service unit tests. Each stub
// satisfies its repository interface and returns gorm.ErrRecordNotFound for
// misses, like the real implementations. DB() returns nil so runTx executes
// the callback without a transaction.

import (
	"context"
	"testing"
	"time"

	"clinicflow/internal/dto"
	"clinicflow/internal/infra"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"
	"clinicflow/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

// newTestCache wires the cache to an unreachable Redis. Every call fails
// fast and the breaker degrades it to a miss / no-op, which is the fallback
// path the services are built around.
func newTestCache() *infra.Cache {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	return infra.NewCache(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
}

func adminActor(clinicID uuid.UUID) service.Actor {
	return service.Actor{ID: uuid.New(), Role: model.RoleAdmin, ClinicID: clinicID}
}

func doctorActor(clinicID, userID uuid.UUID) service.Actor {
	return service.Actor{ID: userID, Role: model.RoleDoctor, ClinicID: clinicID}
}

// ── Inventory items ───────────────────────────────────────────────────────────

type stubItemRepo struct {
	items map[uuid.UUID]*model.InventoryItem
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

func (r *stubItemRepo) CreateTx(_ *gorm.DB, item *model.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok || item.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubItemRepo) FindByIDTxLocked(_ *gorm.DB, clinicID, id uuid.UUID) (*model.InventoryItem, error) {
	return r.FindByID(context.Background(), clinicID, id)
}

func (r *stubItemRepo) FindBySKU(_ context.Context, clinicID uuid.UUID, sku string) (*model.InventoryItem, error) {
	for _, item := range r.items {
		if item.ClinicID == clinicID && item.SKU == sku {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) List(_ context.Context, clinicID uuid.UUID, filter dto.ItemFilter) ([]model.InventoryItem, int64, error) {
	var out []model.InventoryItem
	for _, item := range r.items {
		if item.ClinicID != clinicID {
			continue
		}
		if filter.LowStock && !(item.Quantity > 0 && item.Quantity <= item.MinQuantity) {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) Update(_ context.Context, item *model.InventoryItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubItemRepo) UpdateQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int, updatedBy uuid.UUID) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	item.UpdatedBy = &updatedBy
	return nil
}

func (r *stubItemRepo) Stats(_ context.Context, clinicID uuid.UUID) (*dto.InventoryStatsResponse, error) {
	stats := &dto.InventoryStatsResponse{TotalValue: decimal.Zero, Categories: []dto.CategoryStats{}}
	for _, item := range r.items {
		if item.ClinicID != clinicID {
			continue
		}
		stats.TotalItems++
		switch {
		case item.Quantity == 0:
			stats.OutOfStockItems++
		case item.Quantity <= item.MinQuantity:
			stats.LowStockItems++
		}
		stats.TotalValue = stats.TotalValue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return stats, nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

var _ repository.InventoryItemRepository = (*stubItemRepo)(nil)

func seedItem(repo *stubItemRepo, clinicID uuid.UUID, sku string, quantity, minQuantity int) *model.InventoryItem {
	item := &model.InventoryItem{
		ID:          uuid.New(),
		ClinicID:    clinicID,
		SKU:         sku,
		Name:        "Item " + sku,
		Category:    "consumables",
		Quantity:    quantity,
		MinQuantity: minQuantity,
		UnitPrice:   decimal.NewFromFloat(9.50),
		Status:      model.ItemActive,
		CreatedBy:   uuid.New(),
	}
	repo.items[item.ID] = item
	return item
}

// ── Inventory ledger ──────────────────────────────────────────────────────────

type stubTxnRepo struct {
	entries []*model.InventoryTransaction
}

func (r *stubTxnRepo) CreateTx(_ *gorm.DB, txn *model.InventoryTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = time.Now()
	r.entries = append(r.entries, txn)
	return nil
}

func (r *stubTxnRepo) List(_ context.Context, clinicID uuid.UUID, _ dto.TransactionFilter) ([]model.InventoryTransaction, int64, error) {
	var out []model.InventoryTransaction
	for _, txn := range r.entries {
		if txn.ClinicID == clinicID {
			out = append(out, *txn)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.InventoryTxnRepository = (*stubTxnRepo)(nil)

// ── Stock alerts ──────────────────────────────────────────────────────────────

type stubAlertRepo struct {
	alerts map[uuid.UUID]*model.StockAlert
}

func newStubAlertRepo() *stubAlertRepo {
	return &stubAlertRepo{alerts: make(map[uuid.UUID]*model.StockAlert)}
}

func (r *stubAlertRepo) Create(_ context.Context, alert *model.StockAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	r.alerts[alert.ID] = alert
	return nil
}

func (r *stubAlertRepo) FindUnresolved(_ context.Context, itemID uuid.UUID, level string) (*model.StockAlert, error) {
	for _, a := range r.alerts {
		if a.ItemID == itemID && a.Level == level && !a.Resolved {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAlertRepo) ListUnresolved(_ context.Context, clinicID uuid.UUID) ([]model.StockAlert, error) {
	var out []model.StockAlert
	for _, a := range r.alerts {
		if a.ClinicID == clinicID && !a.Resolved {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAlertRepo) Resolve(_ context.Context, clinicID, id uuid.UUID) error {
	a, ok := r.alerts[id]
	if !ok || a.ClinicID != clinicID {
		return gorm.ErrRecordNotFound
	}
	a.Resolved = true
	return nil
}

func (r *stubAlertRepo) ResolveForItem(_ context.Context, itemID uuid.UUID) error {
	for _, a := range r.alerts {
		if a.ItemID == itemID {
			a.Resolved = true
		}
	}
	return nil
}

func (r *stubAlertRepo) CountUnresolved(_ context.Context, clinicID uuid.UUID) (int64, error) {
	var n int64
	for _, a := range r.alerts {
		if a.ClinicID == clinicID && !a.Resolved {
			n++
		}
	}
	return n, nil
}

var _ repository.StockAlertRepository = (*stubAlertRepo)(nil)

// ── Clinics ───────────────────────────────────────────────────────────────────

type stubClinicRepo struct {
	clinics map[uuid.UUID]*model.Clinic
}

func newStubClinicRepo() *stubClinicRepo {
	return &stubClinicRepo{clinics: make(map[uuid.UUID]*model.Clinic)}
}

func (r *stubClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clinics[c.ID] = c
	return nil
}

func (r *stubClinicRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	c, ok := r.clinics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClinicRepo) List(_ context.Context) ([]model.Clinic, error) {
	out := make([]model.Clinic, 0, len(r.clinics))
	for _, c := range r.clinics {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClinicRepo) Update(_ context.Context, c *model.Clinic) error {
	r.clinics[c.ID] = c
	return nil
}

func (r *stubClinicRepo) LockTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.clinics[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var _ repository.ClinicRepository = (*stubClinicRepo)(nil)

func seedClinic(repo *stubClinicRepo) *model.Clinic {
	c := &model.Clinic{ID: uuid.New(), Name: "Test Clinic", Active: true}
	repo.clinics[c.ID] = c
	return c
}

// ── Patients ──────────────────────────────────────────────────────────────────

type stubPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok || p.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPatientRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPatientRepo) List(_ context.Context, clinicID uuid.UUID, _ dto.PatientFilter) ([]model.Patient, int64, error) {
	var out []model.Patient
	for _, p := range r.patients {
		if p.ClinicID == clinicID && p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) SoftDelete(_ context.Context, clinicID, id uuid.UUID) error {
	p, ok := r.patients[id]
	if !ok || p.ClinicID != clinicID {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

var _ repository.PatientRepository = (*stubPatientRepo)(nil)

func seedPatient(repo *stubPatientRepo, clinicID uuid.UUID) *model.Patient {
	p := &model.Patient{ID: uuid.New(), ClinicID: clinicID, Name: "Jane Roe", Active: true}
	repo.patients[p.ID] = p
	return p
}

// ── Users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context, clinicID uuid.UUID, role string, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if clinicID != uuid.Nil && (u.ClinicID == nil || *u.ClinicID != clinicID) {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		if !includeInactive && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func seedDoctor(repo *stubUserRepo, clinicID uuid.UUID) *model.User {
	cid := clinicID
	u := &model.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@clinic.test",
		Name:     "Dr. Gregory",
		Role:     model.RoleDoctor,
		ClinicID: &cid,
		Active:   true,
	}
	repo.users[u.ID] = u
	return u
}

// ── Appointments ──────────────────────────────────────────────────────────────

type stubApptRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	lastFilter   dto.AppointmentFilter
}

func newStubApptRepo() *stubApptRepo {
	return &stubApptRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *stubApptRepo) Create(_ context.Context, a *model.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *stubApptRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok || a.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubApptRepo) List(_ context.Context, clinicID uuid.UUID, filter dto.AppointmentFilter) ([]model.Appointment, int64, error) {
	r.lastFilter = filter
	var out []model.Appointment
	for _, a := range r.appointments {
		if a.ClinicID != clinicID {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID.String() != filter.DoctorID {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *stubApptRepo) Update(_ context.Context, a *model.Appointment) error {
	r.appointments[a.ID] = a
	return nil
}

func (r *stubApptRepo) CountOverlapping(_ context.Context, doctorID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (int64, error) {
	var n int64
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.ID == excludeID {
			continue
		}
		if a.Status == model.AppointmentCancelled || a.Status == model.AppointmentNoShow {
			continue
		}
		if a.StartsAt.Before(endsAt) && a.EndsAt.After(startsAt) {
			n++
		}
	}
	return n, nil
}

func (r *stubApptRepo) CountTodayByStatus(_ context.Context, clinicID uuid.UUID) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, a := range r.appointments {
		if a.ClinicID == clinicID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *stubApptRepo) MarkOverdueNoShow(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, a := range r.appointments {
		if (a.Status == model.AppointmentScheduled || a.Status == model.AppointmentConfirmed) && a.EndsAt.Before(cutoff) {
			a.Status = model.AppointmentNoShow
			n++
		}
	}
	return n, nil
}

var _ repository.AppointmentRepository = (*stubApptRepo)(nil)

// ── Invoices ──────────────────────────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	payments map[uuid.UUID][]model.InvoicePayment
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		payments: make(map[uuid.UUID][]model.InvoicePayment),
	}
}

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		if inv.Items[i].ID == uuid.Nil {
			inv.Items[i].ID = uuid.New()
		}
		inv.Items[i].InvoiceID = inv.ID
	}
	inv.CreatedAt = time.Now()
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	cp.Payments = append([]model.InvoicePayment(nil), r.payments[id]...)
	return &cp, nil
}

func (r *stubInvoiceRepo) FindByIDTxLocked(_ *gorm.DB, clinicID, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(context.Background(), clinicID, id)
}

func (r *stubInvoiceRepo) List(_ context.Context, clinicID uuid.UUID, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for id, inv := range r.invoices {
		if inv.ClinicID != clinicID {
			continue
		}
		cp := *inv
		cp.Payments = append([]model.InvoicePayment(nil), r.payments[id]...)
		out = append(out, cp)
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) NextNumberTx(_ *gorm.DB, clinicID uuid.UUID) (int, error) {
	max := 0
	for _, inv := range r.invoices {
		if inv.ClinicID == clinicID && inv.Number > max {
			max = inv.Number
		}
	}
	return max + 1, nil
}

func (r *stubInvoiceRepo) ReplaceItemsTx(_ *gorm.DB, inv *model.Invoice, items []model.InvoiceItem) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InvoiceID = inv.ID
	}
	stored.Items = items
	return nil
}

func (r *stubInvoiceRepo) UpdateTotalsTx(_ *gorm.DB, inv *model.Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Subtotal = inv.Subtotal
	stored.TaxAmount = inv.TaxAmount
	stored.DiscountAmount = inv.DiscountAmount
	stored.Total = inv.Total
	return nil
}

func (r *stubInvoiceRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	stored, ok := r.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	return nil
}

func (r *stubInvoiceRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	return r.UpdateStatus(context.Background(), id, status)
}

func (r *stubInvoiceRepo) CreatePaymentTx(_ *gorm.DB, p *model.InvoicePayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.payments[p.InvoiceID] = append(r.payments[p.InvoiceID], *p)
	return nil
}

func (r *stubInvoiceRepo) OutstandingSummary(_ context.Context, clinicID uuid.UUID) (int64, decimal.Decimal, error) {
	var count int64
	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.ClinicID == clinicID && inv.Status == model.InvoiceIssued {
			count++
			total = total.Add(inv.Total)
		}
	}
	return count, total, nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// ── Medical records ───────────────────────────────────────────────────────────

type stubRecordRepo struct {
	records map[uuid.UUID]*model.MedicalRecord
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{records: make(map[uuid.UUID]*model.MedicalRecord)}
}

func (r *stubRecordRepo) Create(_ context.Context, m *model.MedicalRecord) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.records[m.ID] = m
	return nil
}

func (r *stubRecordRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.MedicalRecord, error) {
	m, ok := r.records[id]
	if !ok || m.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubRecordRepo) List(_ context.Context, clinicID uuid.UUID, filter dto.RecordFilter) ([]model.MedicalRecord, int64, error) {
	var out []model.MedicalRecord
	for _, m := range r.records {
		if m.ClinicID != clinicID {
			continue
		}
		if filter.PatientID != "" && m.PatientID.String() != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && m.DoctorID.String() != filter.DoctorID {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (r *stubRecordRepo) UpdateNotes(_ context.Context, id uuid.UUID, notes string) error {
	m, ok := r.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Notes = notes
	return nil
}

var _ repository.RecordRepository = (*stubRecordRepo)(nil)

// ── Prescriptions ─────────────────────────────────────────────────────────────

type stubPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*model.Prescription
}

func newStubPrescriptionRepo() *stubPrescriptionRepo {
	return &stubPrescriptionRepo{prescriptions: make(map[uuid.UUID]*model.Prescription)}
}

func (r *stubPrescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PrescriptionID = p.ID
	}
	r.prescriptions[p.ID] = p
	return nil
}

func (r *stubPrescriptionRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok || p.ClinicID != clinicID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPrescriptionRepo) List(_ context.Context, clinicID uuid.UUID, _ dto.PrescriptionFilter) ([]model.Prescription, int64, error) {
	var out []model.Prescription
	for _, p := range r.prescriptions {
		if p.ClinicID == clinicID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPrescriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := r.prescriptions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (r *stubPrescriptionRepo) FindItemByID(_ context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	for _, p := range r.prescriptions {
		for i := range p.Items {
			if p.Items[i].ID == itemID {
				return &p.Items[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPrescriptionRepo) MarkItemDispensedTx(_ *gorm.DB, itemID uuid.UUID, at time.Time) error {
	for _, p := range r.prescriptions {
		for i := range p.Items {
			if p.Items[i].ID == itemID {
				p.Items[i].DispensedAt = &at
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubPrescriptionRepo) CountUndispensed(_ context.Context, prescriptionID uuid.UUID) (int64, error) {
	p, ok := r.prescriptions[prescriptionID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	var n int64
	for i := range p.Items {
		if p.Items[i].InventoryItemID != nil && p.Items[i].DispensedAt == nil {
			n++
		}
	}
	return n, nil
}

var _ repository.PrescriptionRepository = (*stubPrescriptionRepo)(nil)
