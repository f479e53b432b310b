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

type AppointmentService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.AppointmentResponse, error)
	List(ctx context.Context, actor Actor, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error)
	Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
}

// allowedTransitions defines the appointment status machine. Completed and
// cancelled are terminal; no_show can still be corrected to completed when
// the patient turned up late and was seen.
var allowedTransitions = map[string][]string{
	model.AppointmentScheduled: {model.AppointmentConfirmed, model.AppointmentCancelled, model.AppointmentNoShow},
	model.AppointmentConfirmed: {model.AppointmentCompleted, model.AppointmentCancelled, model.AppointmentNoShow},
	model.AppointmentNoShow:    {model.AppointmentCompleted},
}

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type appointmentService struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	userRepo repository.UserRepository,
) AppointmentService {
	return &appointmentService{repo: repo, patientRepo: patientRepo, userRepo: userRepo}
}

func (s *appointmentService) Create(ctx context.Context, actor Actor, req dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.Validation("patient_id is not a valid uuid")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperr.Validation("doctor_id is not a valid uuid")
	}
	startsAt, endsAt, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}

	if _, err := s.patientRepo.FindByID(ctx, clinicID, patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Persistence("could not load patient", err)
	}
	doctor, err := s.userRepo.FindByID(ctx, doctorID)
	if err != nil || doctor.Role != model.RoleDoctor || !doctor.Active {
		return nil, apperr.Validation("doctor_id does not reference an active doctor")
	}
	if doctor.ClinicID == nil || *doctor.ClinicID != clinicID {
		return nil, apperr.Validation("doctor belongs to a different clinic")
	}

	if err := s.ensureNoOverlap(ctx, doctorID, startsAt, endsAt, uuid.Nil); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ClinicID:  clinicID,
		PatientID: patientID,
		DoctorID:  doctorID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Reason:    req.Reason,
		Status:    model.AppointmentScheduled,
		Notes:     req.Notes,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, apperr.Persistence("could not create appointment", err)
	}
	appt.Doctor = doctor
	return appointmentToResponse(appt), nil
}

func (s *appointmentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	appt, err := s.findAppointment(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	return appointmentToResponse(appt), nil
}

func (s *appointmentService) List(ctx context.Context, actor Actor, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	// Doctors only see their own agenda.
	if actor.Role == model.RoleDoctor {
		filter.DoctorID = actor.ID.String()
	}
	appointments, total, err := s.repo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list appointments", err)
	}
	data := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		data = append(data, *appointmentToResponse(&appointments[i]))
	}
	return &dto.AppointmentListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *appointmentService) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	appt, err := s.findAppointment(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentScheduled && appt.Status != model.AppointmentConfirmed {
		return nil, apperr.InvalidOperation("only scheduled or confirmed appointments can be rescheduled (status is %s)", appt.Status)
	}

	startsAt, endsAt, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, appt.DoctorID, startsAt, endsAt, appt.ID); err != nil {
		return nil, err
	}

	appt.StartsAt = startsAt
	appt.EndsAt = endsAt
	// Rescheduling resets confirmation.
	appt.Status = model.AppointmentScheduled
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, apperr.Persistence("could not reschedule appointment", err)
	}
	return appointmentToResponse(appt), nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	appt, err := s.findAppointment(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(appt.Status, req.Status) {
		return nil, apperr.InvalidOperation("cannot move appointment from %s to %s", appt.Status, req.Status)
	}

	appt.Status = req.Status
	if req.Notes != nil {
		appt.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, apperr.Persistence("could not update appointment status", err)
	}
	return appointmentToResponse(appt), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseWindow(starts, ends string) (time.Time, time.Time, error) {
	startsAt, err := time.Parse(time.RFC3339, starts)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("starts_at must be RFC 3339")
	}
	endsAt, err := time.Parse(time.RFC3339, ends)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("ends_at must be RFC 3339")
	}
	if !endsAt.After(startsAt) {
		return time.Time{}, time.Time{}, apperr.Validation("ends_at must be after starts_at")
	}
	return startsAt, endsAt, nil
}

func (s *appointmentService) ensureNoOverlap(ctx context.Context, doctorID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) error {
	count, err := s.repo.CountOverlapping(ctx, doctorID, startsAt, endsAt, excludeID)
	if err != nil {
		return apperr.Persistence("could not check doctor availability", err)
	}
	if count > 0 {
		return apperr.Conflict("the doctor already has an appointment in that time window")
	}
	return nil
}

func (s *appointmentService) findAppointment(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Persistence("could not load appointment", err)
	}
	return appt, nil
}

func appointmentToResponse(a *model.Appointment) *dto.AppointmentResponse {
	patientName := ""
	if a.Patient != nil {
		patientName = a.Patient.Name
	}
	doctorName := ""
	if a.Doctor != nil {
		doctorName = a.Doctor.Name
	}
	return &dto.AppointmentResponse{
		ID:          a.ID.String(),
		PatientID:   a.PatientID.String(),
		PatientName: patientName,
		DoctorID:    a.DoctorID.String(),
		DoctorName:  doctorName,
		StartsAt:    a.StartsAt.Format(time.RFC3339),
		EndsAt:      a.EndsAt.Format(time.RFC3339),
		Reason:      a.Reason,
		Status:      a.Status,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
