package service_test

import (
	"context"
	"testing"

	"clinicflow/internal/apperr"
	"clinicflow/internal/config"
	"clinicflow/internal/dto"
	"clinicflow/internal/model"
	"clinicflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "unit-test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedUser(repo *stubUserRepo, email, password, role string, clinicID *uuid.UUID) *model.User {
	// MinCost keeps the test suite fast; the service itself hashes at cost 12.
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		ClinicID:     clinicID,
		Active:       true,
	}
	repo.users[u.ID] = u
	return u
}

func TestLogin(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &clinicID)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "doc@clinic.test", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, model.RoleDoctor, resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &clinicID)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "doc@clinic.test", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestLoginDeactivatedUser(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	u := seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &clinicID)
	u.Active = false

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "doc@clinic.test", Password: "s3cretpass"})
	require.Error(t, err)
}

func TestRefreshRoundTrip(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &clinicID)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "doc@clinic.test", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &clinicID)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "doc@clinic.test", Password: "s3cretpass"})
	require.NoError(t, err)

	// Both tokens are signed with the same key; only the one carrying the
	// refresh token_type claim may mint new credentials.
	_, err = svc.Refresh(context.Background(), login.AccessToken)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRefreshGarbageToken(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), newStubClinicRepo(), testConfig())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestMasterAdminCreatesUserNeedsClinic(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), newStubClinicRepo(), testConfig())
	master := service.Actor{ID: uuid.New(), Role: model.RoleMasterAdmin}

	_, err := svc.CreateUser(context.Background(), master, dto.CreateUserRequest{
		Email: "new@clinic.test", Name: "New Admin", Password: "longenough", Role: model.RoleAdmin,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestMasterAdminCreatesAdmin(t *testing.T) {
	userRepo := newStubUserRepo()
	clinicRepo := newStubClinicRepo()
	svc := service.NewAuthService(userRepo, clinicRepo, testConfig())

	clinic := seedClinic(clinicRepo)
	master := service.Actor{ID: uuid.New(), Role: model.RoleMasterAdmin}
	cid := clinic.ID.String()

	resp, err := svc.CreateUser(context.Background(), master, dto.CreateUserRequest{
		Email: "admin@clinic.test", Name: "Clinic Admin", Password: "longenough",
		Role: model.RoleAdmin, ClinicID: &cid,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role)
	require.NotNil(t, resp.ClinicID)
	assert.Equal(t, cid, *resp.ClinicID)
}

func TestAdminCannotCreateAdmin(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), newStubClinicRepo(), testConfig())

	_, err := svc.CreateUser(context.Background(), adminActor(uuid.New()), dto.CreateUserRequest{
		Email: "peer@clinic.test", Name: "Peer", Password: "longenough", Role: model.RoleAdmin,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidOperation))
}

func TestAdminCreatesDoctorInOwnClinic(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	actor := adminActor(uuid.New())

	resp, err := svc.CreateUser(context.Background(), actor, dto.CreateUserRequest{
		Email: "doc@clinic.test", Name: "Dr. New", Password: "longenough", Role: model.RoleDoctor,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ClinicID)
	assert.Equal(t, actor.ClinicID.String(), *resp.ClinicID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	actor := adminActor(uuid.New())
	cid := actor.ClinicID
	seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &cid)

	_, err := svc.CreateUser(context.Background(), actor, dto.CreateUserRequest{
		Email: "doc@clinic.test", Name: "Dr. Clone", Password: "longenough", Role: model.RoleDoctor,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestDeactivateSelfRejected(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	clinicID := uuid.New()
	u := seedUser(userRepo, "admin@clinic.test", "s3cretpass", model.RoleAdmin, &clinicID)

	actor := service.Actor{ID: u.ID, Role: model.RoleAdmin, ClinicID: clinicID}
	err := svc.DeactivateUser(context.Background(), actor, u.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidOperation))
	assert.True(t, userRepo.users[u.ID].Active)
}

func TestAdminCannotManageOtherClinicUser(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	otherClinic := uuid.New()
	outsider := seedUser(userRepo, "doc@other.test", "s3cretpass", model.RoleDoctor, &otherClinic)

	// Out-of-tenant users surface as not found, never as forbidden.
	err := svc.DeactivateUser(context.Background(), adminActor(uuid.New()), outsider.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeactivateAndReactivate(t *testing.T) {
	userRepo := newStubUserRepo()
	svc := service.NewAuthService(userRepo, newStubClinicRepo(), testConfig())
	actor := adminActor(uuid.New())
	cid := actor.ClinicID
	doc := seedUser(userRepo, "doc@clinic.test", "s3cretpass", model.RoleDoctor, &cid)

	require.NoError(t, svc.DeactivateUser(context.Background(), actor, doc.ID))
	assert.False(t, userRepo.users[doc.ID].Active)

	require.NoError(t, svc.ReactivateUser(context.Background(), actor, doc.ID))
	assert.True(t, userRepo.users[doc.ID].Active)
}
