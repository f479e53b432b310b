package repository

import (
	"context"
	"time"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.AppointmentFilter) ([]model.Appointment, int64, error)
	Update(ctx context.Context, a *model.Appointment) error
	// CountOverlapping counts non-cancelled appointments of the doctor that
	// intersect [startsAt, endsAt), excluding excludeID (uuid.Nil to skip).
	CountOverlapping(ctx context.Context, doctorID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (int64, error)
	CountTodayByStatus(ctx context.Context, clinicID uuid.UUID) (map[string]int64, error)
	// MarkOverdueNoShow flips scheduled/confirmed appointments whose end time
	// passed before cutoff to no_show. Returns the number of rows updated.
	MarkOverdueNoShow(ctx context.Context, cutoff time.Time) (int64, error)
}

type appointmentRepo struct{ db *gorm.DB }

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository { return &appointmentRepo{db: db} }

func (r *appointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *appointmentRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).Preload("Patient").Preload("Doctor").
		Where("clinic_id = ?", clinicID).First(&a, id).Error
	return &a, err
}

func (r *appointmentRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.AppointmentFilter) ([]model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{}).Where("clinic_id = ?", clinicID)

	if filter.DoctorID != "" {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(starts_at) = ?", filter.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var appointments []model.Appointment
	err := q.Preload("Patient").Preload("Doctor").
		Order("starts_at ASC").Offset(offset).Limit(filter.Limit).
		Find(&appointments).Error
	return appointments, total, err
}

func (r *appointmentRepo) Update(ctx context.Context, a *model.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *appointmentRepo) CountOverlapping(ctx context.Context, doctorID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("doctor_id = ?", doctorID).
		Where("status NOT IN ?", []string{model.AppointmentCancelled, model.AppointmentNoShow}).
		Where("starts_at < ? AND ends_at > ?", endsAt, startsAt)
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *appointmentRepo) CountTodayByStatus(ctx context.Context, clinicID uuid.UUID) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Select("status, COUNT(*) AS count").
		Where("clinic_id = ? AND DATE(starts_at) = CURRENT_DATE", clinicID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *appointmentRepo) MarkOverdueNoShow(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("status IN ?", []string{model.AppointmentScheduled, model.AppointmentConfirmed}).
		Where("ends_at < ?", cutoff).
		Update("status", model.AppointmentNoShow)
	return result.RowsAffected, result.Error
}
