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

// RecordService manages EHR visit notes. Records are written by doctors and
// immutable afterwards except for notes amendment by the authoring doctor.
type RecordService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateRecordRequest) (*dto.RecordResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.RecordResponse, error)
	List(ctx context.Context, actor Actor, filter dto.RecordFilter) (*dto.RecordListResponse, error)
	AmendNotes(ctx context.Context, actor Actor, id uuid.UUID, req dto.AmendRecordNotesRequest) (*dto.RecordResponse, error)
}

type recordService struct {
	repo        repository.RecordRepository
	patientRepo repository.PatientRepository
	apptRepo    repository.AppointmentRepository
}

func NewRecordService(
	repo repository.RecordRepository,
	patientRepo repository.PatientRepository,
	apptRepo repository.AppointmentRepository,
) RecordService {
	return &recordService{repo: repo, patientRepo: patientRepo, apptRepo: apptRepo}
}

func (s *recordService) Create(ctx context.Context, actor Actor, req dto.CreateRecordRequest) (*dto.RecordResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleDoctor {
		return nil, apperr.InvalidOperation("only doctors can create medical records")
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

	record := &model.MedicalRecord{
		ClinicID:       clinicID,
		PatientID:      patientID,
		DoctorID:       actor.ID,
		ChiefComplaint: req.ChiefComplaint,
		Diagnosis:      req.Diagnosis,
		Notes:          req.Notes,
		HeightCm:       req.HeightCm,
		WeightKg:       req.WeightKg,
		BloodPressure:  req.BloodPressure,
		TemperatureC:   req.TemperatureC,
		PulseBpm:       req.PulseBpm,
	}
	if req.AppointmentID != nil {
		aid, perr := uuid.Parse(*req.AppointmentID)
		if perr != nil {
			return nil, apperr.Validation("appointment_id is not a valid uuid")
		}
		appt, aerr := s.apptRepo.FindByID(ctx, clinicID, aid)
		if aerr != nil {
			return nil, apperr.NotFound("appointment not found")
		}
		if appt.PatientID != patientID {
			return nil, apperr.Validation("appointment belongs to a different patient")
		}
		record.AppointmentID = &aid
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperr.Persistence("could not create medical record", err)
	}
	return recordToResponse(record), nil
}

func (s *recordService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.RecordResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	record, err := s.findRecord(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, record); err != nil {
		return nil, err
	}
	return recordToResponse(record), nil
}

func (s *recordService) List(ctx context.Context, actor Actor, filter dto.RecordFilter) (*dto.RecordListResponse, error) {
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
	// Patient accounts only see their own history.
	if actor.Role == model.RolePatient {
		patient, perr := s.patientRepo.FindByUserID(ctx, actor.ID)
		if perr != nil {
			return nil, apperr.NotFound("no patient record is linked to this account")
		}
		filter.PatientID = patient.ID.String()
	}
	records, total, err := s.repo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list medical records", err)
	}
	data := make([]dto.RecordResponse, 0, len(records))
	for i := range records {
		data = append(data, *recordToResponse(&records[i]))
	}
	return &dto.RecordListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *recordService) AmendNotes(ctx context.Context, actor Actor, id uuid.UUID, req dto.AmendRecordNotesRequest) (*dto.RecordResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	record, err := s.findRecord(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if record.DoctorID != actor.ID {
		return nil, apperr.InvalidOperation("only the authoring doctor can amend a record")
	}
	if err := s.repo.UpdateNotes(ctx, record.ID, req.Notes); err != nil {
		return nil, apperr.Persistence("could not amend record notes", err)
	}
	record.Notes = req.Notes
	return recordToResponse(record), nil
}

func (s *recordService) authorizeRead(ctx context.Context, actor Actor, record *model.MedicalRecord) error {
	if actor.Role != model.RolePatient {
		return nil
	}
	patient, err := s.patientRepo.FindByUserID(ctx, actor.ID)
	if err != nil || patient.ID != record.PatientID {
		return apperr.NotFound("medical record not found")
	}
	return nil
}

func (s *recordService) findRecord(ctx context.Context, clinicID, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("medical record not found")
		}
		return nil, apperr.Persistence("could not load medical record", err)
	}
	return record, nil
}

func recordToResponse(m *model.MedicalRecord) *dto.RecordResponse {
	patientName := ""
	if m.Patient != nil {
		patientName = m.Patient.Name
	}
	doctorName := ""
	if m.Doctor != nil {
		doctorName = m.Doctor.Name
	}
	return &dto.RecordResponse{
		ID:             m.ID.String(),
		PatientID:      m.PatientID.String(),
		PatientName:    patientName,
		DoctorID:       m.DoctorID.String(),
		DoctorName:     doctorName,
		AppointmentID:  refString(m.AppointmentID),
		ChiefComplaint: m.ChiefComplaint,
		Diagnosis:      m.Diagnosis,
		Notes:          m.Notes,
		HeightCm:       m.HeightCm,
		WeightKg:       m.WeightKg,
		BloodPressure:  m.BloodPressure,
		TemperatureC:   m.TemperatureC,
		PulseBpm:       m.PulseBpm,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}
