package services

import (
	"context"
	"testing"
	"time"

	"servimarket_backend/internal/config"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	userRepo    *fakeUserRepo
	refreshRepo *fakeRefreshRepo
	sms         *fakeSMS
	svc         AuthService
}

func newAuthFixture(t *testing.T, users ...*models.User) *authFixture {
	t.Helper()
	config.AppConfig = &config.Config{}
	config.AppConfig.JWT.Secret = "test-secret"
	config.AppConfig.JWT.TTL = 60

	userRepo := newFakeUserRepo(users...)
	refreshRepo := newFakeRefreshRepo()
	docRepo := newFakeDocumentRepo()
	store := newFakeStorage()
	smsProvider := &fakeSMS{}

	documentSvc := NewDocumentService(docRepo, userRepo, store, UploadLimits{
		MaxSize:      testMaxUpload,
		AllowedTypes: []string{"image/jpeg", "image/png"},
	})
	verificationSvc := NewVerificationService(
		userRepo, docRepo, newFakeCodeRepo(), documentSvc,
		smsProvider, &fakeEmail{},
		10*time.Minute, 10*time.Minute,
	)
	return &authFixture{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		sms:         smsProvider,
		svc:         NewAuthService(userRepo, refreshRepo, verificationSvc),
	}
}

func registerReq() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:     "Carla",
		Email:    "carla@example.com",
		Phone:    "+5215533334444",
		Password: "secret123",
		Role:     models.UserRoleProvider,
	}
}

func TestRegisterStartsAtPhoneStepInactive(t *testing.T) {
	f := newAuthFixture(t)
	db := testDB(t)

	resp, err := f.svc.Register(context.Background(), db, registerReq())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.False(t, resp.User.IsActive)
	assert.Equal(t, models.StepPhone, resp.User.VerificationStep)
	assert.Equal(t, models.VerificationStatusPending, resp.User.VerificationStatus)

	// The first SMS code went out during registration.
	assert.Len(t, f.sms.codes, 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	db := testDB(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, db, registerReq())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, db, registerReq())
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 409, appErr.HTTPCode)
}

func TestLoginAllowsUnverifiedDeniesBanned(t *testing.T) {
	f := newAuthFixture(t)
	db := testDB(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, db, registerReq())
	require.NoError(t, err)

	// Unverified and inactive, but the session is needed to finish the flow.
	resp, err := f.svc.Login(ctx, db, &dto.LoginRequest{Email: "carla@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, resp.User.IsActive)

	_, err = f.svc.Login(ctx, db, &dto.LoginRequest{Email: "carla@example.com", Password: "wrong"})
	require.Error(t, err)

	banned := f.userRepo.get(reg.User.ID)
	require.NoError(t, f.userRepo.UpdateVerification(db, banned.ID, banned.VerificationStep, models.VerificationStatusBanned))
	_, err = f.svc.Login(ctx, db, &dto.LoginRequest{Email: "carla@example.com", Password: "secret123"})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 403, appErr.HTTPCode)
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	db := testDB(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, db, registerReq())
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, db, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The burned token cannot be replayed.
	_, err = f.svc.RefreshToken(ctx, db, reg.RefreshToken)
	require.Error(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	db := testDB(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, db, registerReq())
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, db, reg.RefreshToken))
	_, err = f.svc.RefreshToken(ctx, db, reg.RefreshToken)
	require.Error(t, err)
}
