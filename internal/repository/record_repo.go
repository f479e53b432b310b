package repository

import (
	"context"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordRepository interface {
	Create(ctx context.Context, m *model.MedicalRecord) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.MedicalRecord, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.RecordFilter) ([]model.MedicalRecord, int64, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
}

type recordRepo struct{ db *gorm.DB }

func NewRecordRepository(db *gorm.DB) RecordRepository { return &recordRepo{db: db} }

func (r *recordRepo) Create(ctx context.Context, m *model.MedicalRecord) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *recordRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.MedicalRecord, error) {
	var m model.MedicalRecord
	err := r.db.WithContext(ctx).Preload("Patient").Preload("Doctor").
		Where("clinic_id = ?", clinicID).First(&m, id).Error
	return &m, err
}

func (r *recordRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.RecordFilter) ([]model.MedicalRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MedicalRecord{}).Where("clinic_id = ?", clinicID)

	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var records []model.MedicalRecord
	err := q.Preload("Patient").Preload("Doctor").
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&records).Error
	return records, total, err
}

func (r *recordRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return r.db.WithContext(ctx).Model(&model.MedicalRecord{}).
		Where("id = ?", id).Update("notes", notes).Error
}
