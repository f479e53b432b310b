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
	"gorm.io/gorm"
)

type PrescriptionService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePrescriptionRequest) (*dto.PrescriptionResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.PrescriptionResponse, error)
	List(ctx context.Context, actor Actor, filter dto.PrescriptionFilter) (*dto.PrescriptionListResponse, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
	// Dispense hands out one prescription item from the clinic's stock: the
	// stock adjustment (type=out) and the dispensed_at stamp commit in the
	// same transaction. When the last linked item is dispensed the
	// prescription flips to completed.
	Dispense(ctx context.Context, actor Actor, prescriptionID uuid.UUID, req dto.DispenseRequest) (*dto.PrescriptionResponse, error)
}

type prescriptionService struct {
	repo        repository.PrescriptionRepository
	patientRepo repository.PatientRepository
	itemRepo    repository.InventoryItemRepository
	inventory   InventoryService
}

func NewPrescriptionService(
	repo repository.PrescriptionRepository,
	patientRepo repository.PatientRepository,
	itemRepo repository.InventoryItemRepository,
	inventory InventoryService,
) PrescriptionService {
	return &prescriptionService{
		repo:        repo,
		patientRepo: patientRepo,
		itemRepo:    itemRepo,
		inventory:   inventory,
	}
}

func (s *prescriptionService) Create(ctx context.Context, actor Actor, req dto.CreatePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleDoctor {
		return nil, apperr.InvalidOperation("only doctors can write prescriptions")
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

	p := &model.Prescription{
		ClinicID:  clinicID,
		PatientID: patientID,
		DoctorID:  actor.ID,
		Status:    model.PrescriptionActive,
		Notes:     req.Notes,
	}
	if req.MedicalRecordID != nil {
		rid, perr := uuid.Parse(*req.MedicalRecordID)
		if perr != nil {
			return nil, apperr.Validation("medical_record_id is not a valid uuid")
		}
		p.MedicalRecordID = &rid
	}

	for _, itemReq := range req.Items {
		item := model.PrescriptionItem{
			Medication:   itemReq.Medication,
			Dosage:       itemReq.Dosage,
			Frequency:    itemReq.Frequency,
			DurationDays: itemReq.DurationDays,
			Quantity:     itemReq.Quantity,
			Instructions: itemReq.Instructions,
		}
		if itemReq.InventoryItemID != nil {
			iid, perr := uuid.Parse(*itemReq.InventoryItemID)
			if perr != nil {
				return nil, apperr.Validation("inventory_item_id is not a valid uuid")
			}
			if itemReq.Quantity < 1 {
				return nil, apperr.Validation("quantity must be at least 1 for stock-linked items")
			}
			stock, serr := s.itemRepo.FindByID(ctx, clinicID, iid)
			if serr != nil {
				return nil, apperr.NotFound("inventory item %s not found", *itemReq.InventoryItemID)
			}
			if stock.Status != model.ItemActive {
				return nil, apperr.InvalidOperation("inventory item %q is not active", stock.Name)
			}
			item.InventoryItemID = &iid
		}
		p.Items = append(p.Items, item)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Persistence("could not create prescription", err)
	}
	return prescriptionToResponse(p), nil
}

func (s *prescriptionService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.PrescriptionResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	p, err := s.findPrescription(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RolePatient {
		patient, perr := s.patientRepo.FindByUserID(ctx, actor.ID)
		if perr != nil || patient.ID != p.PatientID {
			return nil, apperr.NotFound("prescription not found")
		}
	}
	return prescriptionToResponse(p), nil
}

func (s *prescriptionService) List(ctx context.Context, actor Actor, filter dto.PrescriptionFilter) (*dto.PrescriptionListResponse, error) {
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
	if actor.Role == model.RolePatient {
		patient, perr := s.patientRepo.FindByUserID(ctx, actor.ID)
		if perr != nil {
			return nil, apperr.NotFound("no patient record is linked to this account")
		}
		filter.PatientID = patient.ID.String()
	}
	prescriptions, total, err := s.repo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list prescriptions", err)
	}
	data := make([]dto.PrescriptionResponse, 0, len(prescriptions))
	for i := range prescriptions {
		data = append(data, *prescriptionToResponse(&prescriptions[i]))
	}
	return &dto.PrescriptionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *prescriptionService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return err
	}
	p, err := s.findPrescription(ctx, clinicID, id)
	if err != nil {
		return err
	}
	if p.Status != model.PrescriptionActive {
		return apperr.InvalidOperation("only active prescriptions can be cancelled (status is %s)", p.Status)
	}
	for _, item := range p.Items {
		if item.DispensedAt != nil {
			return apperr.InvalidOperation("prescriptions with dispensed items cannot be cancelled")
		}
	}
	if err := s.repo.UpdateStatus(ctx, p.ID, model.PrescriptionCancelled); err != nil {
		return apperr.Persistence("could not cancel prescription", err)
	}
	return nil
}

func (s *prescriptionService) Dispense(ctx context.Context, actor Actor, prescriptionID uuid.UUID, req dto.DispenseRequest) (*dto.PrescriptionResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	p, err := s.findPrescription(ctx, clinicID, prescriptionID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PrescriptionActive {
		return nil, apperr.InvalidOperation("only active prescriptions can be dispensed (status is %s)", p.Status)
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperr.Validation("item_id is not a valid uuid")
	}
	var target *model.PrescriptionItem
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			target = &p.Items[i]
			break
		}
	}
	if target == nil {
		return nil, apperr.NotFound("prescription item not found")
	}
	if target.InventoryItemID == nil {
		return nil, apperr.InvalidOperation("this item is not linked to clinic stock")
	}
	if target.DispensedAt != nil {
		return nil, apperr.InvalidOperation("this item has already been dispensed")
	}

	now := time.Now()
	adj := dto.AdjustStockRequest{
		Type:   model.TxnOut,
		Delta:  target.Quantity,
		Reason: "prescription dispensed",
	}

	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		ref := p.ID
		if _, err := s.inventory.AdjustInTx(tx, actor, clinicID, *target.InventoryItemID, adj, &ref); err != nil {
			return err
		}
		return s.repo.MarkItemDispensedTx(tx, target.ID, now)
	})
	if txErr != nil {
		return nil, txErr
	}
	target.DispensedAt = &now
	s.inventory.PublishAdjusted(ctx, clinicID, *target.InventoryItemID)

	// Flip to completed once every stock-linked item has been handed out.
	remaining, err := s.repo.CountUndispensed(ctx, p.ID)
	if err == nil && remaining == 0 {
		if uerr := s.repo.UpdateStatus(ctx, p.ID, model.PrescriptionCompleted); uerr == nil {
			p.Status = model.PrescriptionCompleted
		}
	}

	return prescriptionToResponse(p), nil
}

func (s *prescriptionService) findPrescription(ctx context.Context, clinicID, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("prescription not found")
		}
		return nil, apperr.Persistence("could not load prescription", err)
	}
	return p, nil
}

func prescriptionToResponse(p *model.Prescription) *dto.PrescriptionResponse {
	items := make([]dto.PrescriptionItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		var dispensed *string
		if item.DispensedAt != nil {
			d := item.DispensedAt.Format(time.RFC3339)
			dispensed = &d
		}
		items = append(items, dto.PrescriptionItemResponse{
			ID:              item.ID.String(),
			Medication:      item.Medication,
			Dosage:          item.Dosage,
			Frequency:       item.Frequency,
			DurationDays:    item.DurationDays,
			Quantity:        item.Quantity,
			Instructions:    item.Instructions,
			InventoryItemID: refString(item.InventoryItemID),
			DispensedAt:     dispensed,
		})
	}
	patientName := ""
	if p.Patient != nil {
		patientName = p.Patient.Name
	}
	doctorName := ""
	if p.Doctor != nil {
		doctorName = p.Doctor.Name
	}
	return &dto.PrescriptionResponse{
		ID:              p.ID.String(),
		PatientID:       p.PatientID.String(),
		PatientName:     patientName,
		DoctorID:        p.DoctorID.String(),
		DoctorName:      doctorName,
		MedicalRecordID: refString(p.MedicalRecordID),
		Status:          p.Status,
		Notes:           p.Notes,
		Items:           items,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
