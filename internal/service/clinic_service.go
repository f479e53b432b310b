package service

import (
	"context"
	"errors"

	"clinicflow/internal/apperr"
	"clinicflow/internal/dto"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicService manages tenants. All operations are master_admin only; the
// router enforces the role, the service just does the work.
type ClinicService interface {
	Create(ctx context.Context, req dto.CreateClinicRequest) (*dto.ClinicResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ClinicResponse, error)
	List(ctx context.Context) ([]dto.ClinicResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateClinicRequest) (*dto.ClinicResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type clinicService struct {
	repo repository.ClinicRepository
}

func NewClinicService(repo repository.ClinicRepository) ClinicService {
	return &clinicService{repo: repo}
}

func (s *clinicService) Create(ctx context.Context, req dto.CreateClinicRequest) (*dto.ClinicResponse, error) {
	clinic := &model.Clinic{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Active:  true,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, apperr.Persistence("could not create clinic", err)
	}
	return clinicToResponse(clinic), nil
}

func (s *clinicService) Get(ctx context.Context, id uuid.UUID) (*dto.ClinicResponse, error) {
	clinic, err := s.findClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	return clinicToResponse(clinic), nil
}

func (s *clinicService) List(ctx context.Context) ([]dto.ClinicResponse, error) {
	clinics, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not list clinics", err)
	}
	resp := make([]dto.ClinicResponse, len(clinics))
	for i := range clinics {
		resp[i] = *clinicToResponse(&clinics[i])
	}
	return resp, nil
}

func (s *clinicService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateClinicRequest) (*dto.ClinicResponse, error) {
	clinic, err := s.findClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		clinic.Name = *req.Name
	}
	if req.Address != nil {
		clinic.Address = req.Address
	}
	if req.Phone != nil {
		clinic.Phone = req.Phone
	}
	if req.Email != nil {
		clinic.Email = req.Email
	}
	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, apperr.Persistence("could not update clinic", err)
	}
	return clinicToResponse(clinic), nil
}

func (s *clinicService) Deactivate(ctx context.Context, id uuid.UUID) error {
	clinic, err := s.findClinic(ctx, id)
	if err != nil {
		return err
	}
	clinic.Active = false
	if err := s.repo.Update(ctx, clinic); err != nil {
		return apperr.Persistence("could not deactivate clinic", err)
	}
	return nil
}

func (s *clinicService) findClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("clinic not found")
		}
		return nil, apperr.Persistence("could not load clinic", err)
	}
	return clinic, nil
}

func clinicToResponse(c *model.Clinic) *dto.ClinicResponse {
	return &dto.ClinicResponse{
		ID:      c.ID.String(),
		Name:    c.Name,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
		Active:  c.Active,
	}
}
