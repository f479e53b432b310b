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

type PatientService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePatientRequest) (*dto.PatientResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.PatientResponse, error)
	List(ctx context.Context, actor Actor, filter dto.PatientFilter) (*dto.PatientListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
}

type patientService struct {
	repo     repository.PatientRepository
	userRepo repository.UserRepository
}

func NewPatientService(repo repository.PatientRepository, userRepo repository.UserRepository) PatientService {
	return &patientService{repo: repo, userRepo: userRepo}
}

func (s *patientService) Create(ctx context.Context, actor Actor, req dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		ClinicID:         clinicID,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Gender:           req.Gender,
		Address:          req.Address,
		BloodGroup:       req.BloodGroup,
		Allergies:        req.Allergies,
		EmergencyContact: req.EmergencyContact,
		Active:           true,
	}
	if req.DateOfBirth != nil {
		dob, perr := time.Parse("2006-01-02", *req.DateOfBirth)
		if perr != nil {
			return nil, apperr.Validation("date_of_birth must be YYYY-MM-DD")
		}
		patient.DateOfBirth = &dob
	}
	if req.UserID != nil {
		uid, perr := uuid.Parse(*req.UserID)
		if perr != nil {
			return nil, apperr.Validation("user_id is not a valid uuid")
		}
		user, uerr := s.userRepo.FindByID(ctx, uid)
		if uerr != nil || user.Role != model.RolePatient {
			return nil, apperr.Validation("user_id must reference a patient account")
		}
		if user.ClinicID == nil || *user.ClinicID != clinicID {
			return nil, apperr.Validation("the linked account belongs to a different clinic")
		}
		patient.UserID = &uid
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperr.Persistence("could not create patient", err)
	}
	return patientToResponse(patient), nil
}

func (s *patientService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.PatientResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	patient, err := s.findPatient(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	// Patient accounts may only read their own record.
	if actor.Role == model.RolePatient && (patient.UserID == nil || *patient.UserID != actor.ID) {
		return nil, apperr.NotFound("patient not found")
	}
	return patientToResponse(patient), nil
}

func (s *patientService) List(ctx context.Context, actor Actor, filter dto.PatientFilter) (*dto.PatientListResponse, error) {
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
	patients, total, err := s.repo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list patients", err)
	}
	data := make([]dto.PatientResponse, 0, len(patients))
	for i := range patients {
		data = append(data, *patientToResponse(&patients[i]))
	}
	return &dto.PatientListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *patientService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	patient, err := s.findPatient(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = req.Email
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		dob, perr := time.Parse("2006-01-02", *req.DateOfBirth)
		if perr != nil {
			return nil, apperr.Validation("date_of_birth must be YYYY-MM-DD")
		}
		patient.DateOfBirth = &dob
	}
	if req.Gender != nil {
		patient.Gender = req.Gender
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = req.BloodGroup
	}
	if req.Allergies != nil {
		patient.Allergies = req.Allergies
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, apperr.Persistence("could not update patient", err)
	}
	return patientToResponse(patient), nil
}

func (s *patientService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return err
	}
	if _, err := s.findPatient(ctx, clinicID, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, clinicID, id); err != nil {
		return apperr.Persistence("could not deactivate patient", err)
	}
	return nil
}

func (s *patientService) findPatient(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Persistence("could not load patient", err)
	}
	return patient, nil
}

func patientToResponse(p *model.Patient) *dto.PatientResponse {
	var dob *string
	if p.DateOfBirth != nil {
		d := p.DateOfBirth.Format("2006-01-02")
		dob = &d
	}
	return &dto.PatientResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		DateOfBirth:      dob,
		Gender:           p.Gender,
		Address:          p.Address,
		BloodGroup:       p.BloodGroup,
		Allergies:        p.Allergies,
		EmergencyContact: p.EmergencyContact,
		Active:           p.Active,
	}
}
