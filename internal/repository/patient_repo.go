package repository

import (
	"context"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(ctx context.Context, p *model.Patient) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.PatientFilter) ([]model.Patient, int64, error)
	Update(ctx context.Context, p *model.Patient) error
	SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error
}

type patientRepo struct{ db *gorm.DB }

func NewPatientRepository(db *gorm.DB) PatientRepository { return &patientRepo{db: db} }

func (r *patientRepo) Create(ctx context.Context, p *model.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *patientRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Where("clinic_id = ?", clinicID).First(&p, id).Error
	return &p, err
}

func (r *patientRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	return &p, err
}

func (r *patientRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.PatientFilter) ([]model.Patient, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Patient{}).Where("clinic_id = ?", clinicID)

	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var patients []model.Patient
	err := q.Order("name ASC").Offset(offset).Limit(filter.Limit).Find(&patients).Error
	return patients, total, err
}

func (r *patientRepo) Update(ctx context.Context, p *model.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *patientRepo) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		Update("active", false).Error
}
