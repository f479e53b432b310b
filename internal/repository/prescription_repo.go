package repository

import (
	"context"
	"time"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *model.Prescription) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Prescription, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.PrescriptionFilter) ([]model.Prescription, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error)
	// MarkItemDispensedTx stamps the item inside the dispensing transaction so
	// the ledger write and the dispense flag commit together.
	MarkItemDispensedTx(tx *gorm.DB, itemID uuid.UUID, at time.Time) error
	CountUndispensed(ctx context.Context, prescriptionID uuid.UUID) (int64, error)
}

type prescriptionRepo struct{ db *gorm.DB }

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepo{db: db}
}

func (r *prescriptionRepo) Create(ctx context.Context, p *model.Prescription) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *prescriptionRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Prescription, error) {
	var p model.Prescription
	err := r.db.WithContext(ctx).Preload("Items").Preload("Patient").Preload("Doctor").
		Where("clinic_id = ?", clinicID).First(&p, id).Error
	return &p, err
}

func (r *prescriptionRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.PrescriptionFilter) ([]model.Prescription, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Prescription{}).Where("clinic_id = ?", clinicID)

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
	var prescriptions []model.Prescription
	err := q.Preload("Items").Preload("Patient").Preload("Doctor").
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&prescriptions).Error
	return prescriptions, total, err
}

func (r *prescriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Prescription{}).
		Where("id = ?", id).Update("status", status).Error
}

func (r *prescriptionRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	var item model.PrescriptionItem
	err := r.db.WithContext(ctx).First(&item, itemID).Error
	return &item, err
}

func (r *prescriptionRepo) MarkItemDispensedTx(tx *gorm.DB, itemID uuid.UUID, at time.Time) error {
	return tx.Model(&model.PrescriptionItem{}).
		Where("id = ?", itemID).Update("dispensed_at", at).Error
}

func (r *prescriptionRepo) CountUndispensed(ctx context.Context, prescriptionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PrescriptionItem{}).
		Where("prescription_id = ? AND inventory_item_id IS NOT NULL AND dispensed_at IS NULL", prescriptionID).
		Count(&count).Error
	return count, err
}
