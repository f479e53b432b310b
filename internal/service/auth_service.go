package service

import (
	"context"
	"errors"
	"time"

	"clinicflow/internal/apperr"
	"clinicflow/internal/config"
	"clinicflow/internal/dto"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, actor Actor, role string, includeInactive bool) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, actor Actor, id uuid.UUID) error
	ReactivateUser(ctx context.Context, actor Actor, id uuid.UUID) error
}

type authService struct {
	repo       repository.UserRepository
	clinicRepo repository.ClinicRepository
	cfg        *config.Config
}

func NewAuthService(repo repository.UserRepository, clinicRepo repository.ClinicRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, clinicRepo: clinicRepo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Validation("invalid credentials")
	}
	if !user.Active {
		return nil, apperr.Validation("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Validation("invalid credentials")
	}
	return s.buildLoginResponse(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Validation("refresh token is invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.Validation("refresh token is malformed")
	}
	// Access tokens share the signing key; the token_type claim keeps them
	// from being replayed as refresh tokens.
	if tokenType, _ := claims["token_type"].(string); tokenType != tokenTypeRefresh {
		return nil, apperr.Validation("token is not a refresh token")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, apperr.Validation("refresh token is malformed")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apperr.Validation("refresh token is malformed")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, apperr.Validation("user not found or inactive")
	}
	return s.buildLoginResponse(user)
}

// CreateUser enforces the role hierarchy: master_admin manages admins across
// clinics; admins manage doctors and patient accounts within their own clinic.
func (s *authService) CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	var clinicID *uuid.UUID

	switch actor.Role {
	case model.RoleMasterAdmin:
		if req.Role == model.RoleMasterAdmin {
			return nil, apperr.InvalidOperation("master_admin accounts cannot be created through the API")
		}
		if req.ClinicID == nil {
			return nil, apperr.Validation("clinic_id is required when creating users as master_admin")
		}
		cid, err := uuid.Parse(*req.ClinicID)
		if err != nil {
			return nil, apperr.Validation("clinic_id is not a valid uuid")
		}
		if _, err := s.clinicRepo.FindByID(ctx, cid); err != nil {
			return nil, apperr.NotFound("clinic not found")
		}
		clinicID = &cid
	case model.RoleAdmin:
		if req.Role == model.RoleMasterAdmin || req.Role == model.RoleAdmin {
			return nil, apperr.InvalidOperation("admins can only create doctor and patient users")
		}
		cid := actor.ClinicID
		clinicID = &cid
	default:
		return nil, apperr.InvalidOperation("insufficient privileges to create users")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("a user with email %q already exists", req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence("could not check email uniqueness", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, apperr.Persistence("could not hash password", err)
	}
	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		ClinicID:     clinicID,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperr.Persistence("could not create user", err)
	}
	return userToResponse(user), nil
}

func (s *authService) ListUsers(ctx context.Context, actor Actor, role string, includeInactive bool) ([]dto.UserResponse, error) {
	clinicID := actor.ClinicID // uuid.Nil for master_admin lists all
	users, err := s.repo.List(ctx, clinicID, role, includeInactive)
	if err != nil {
		return nil, apperr.Persistence("could not list users", err)
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = *userToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.findManagedUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, apperr.Persistence("could not hash password", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperr.Persistence("could not update user", err)
	}
	return userToResponse(user), nil
}

func (s *authService) DeactivateUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.ID == id {
		return apperr.InvalidOperation("you cannot deactivate your own account")
	}
	if _, err := s.findManagedUser(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apperr.Persistence("could not deactivate user", err)
	}
	return nil
}

func (s *authService) ReactivateUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.findManagedUser(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return apperr.Persistence("could not reactivate user", err)
	}
	return nil
}

// findManagedUser loads a user and verifies the actor is allowed to manage it.
// An out-of-tenant user is reported as not found, never as forbidden.
func (s *authService) findManagedUser(ctx context.Context, actor Actor, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Persistence("could not load user", err)
	}
	if actor.Role == model.RoleMasterAdmin {
		return user, nil
	}
	if user.ClinicID == nil || *user.ClinicID != actor.ClinicID {
		return nil, apperr.NotFound("user not found")
	}
	if user.Role == model.RoleMasterAdmin || (user.Role == model.RoleAdmin && user.ID != actor.ID) {
		return nil, apperr.InvalidOperation("insufficient privileges to manage this user")
	}
	return user, nil
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

func (s *authService) buildLoginResponse(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour, tokenTypeAccess)
	if err != nil {
		return nil, apperr.Persistence("could not sign access token", err)
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour, tokenTypeRefresh)
	if err != nil {
		return nil, apperr.Persistence("could not sign refresh token", err)
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         *userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration, tokenType string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"email":      user.Email,
		"role":       user.Role,
		"token_type": tokenType,
		"exp":        time.Now().Add(duration).Unix(),
		"iat":        time.Now().Unix(),
	}
	if user.ClinicID != nil {
		claims["clinic_id"] = user.ClinicID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func userToResponse(u *model.User) *dto.UserResponse {
	var clinicID *string
	if u.ClinicID != nil {
		c := u.ClinicID.String()
		clinicID = &c
	}
	return &dto.UserResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		ClinicID: clinicID,
		Phone:    u.Phone,
		Active:   u.Active,
	}
}
