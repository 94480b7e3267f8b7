package services

import (
	"context"
	"time"

	"servimarket_backend/internal/auth"
	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type AuthService interface {
	// Register creates the account inactive at step=phone and sends the
	// first SMS code.
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.LoginResponse, error)

	// Login authenticates by email + password. Unverified accounts may log
	// in (they need the session to finish verification); banned ones may not.
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)

	RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, db *gorm.DB, refreshToken string) error
}

type authService struct {
	userRepo        repositories.UserRepository
	refreshRepo     repositories.RefreshTokenRepository
	verificationSvc VerificationService
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshRepo repositories.RefreshTokenRepository,
	verificationSvc VerificationService,
) AuthService {
	return &authService{
		userRepo:        userRepo,
		refreshRepo:     refreshRepo,
		verificationSvc: verificationSvc,
	}
}

func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		PasswordHash:       hash,
		Role:               req.Role,
		IsActive:           false,
		VerificationStatus: models.VerificationStatusPending,
		VerificationStep:   models.StepPhone,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	// Kick off the first verification step right away.
	if _, err := s.verificationSvc.IssuePhoneCode(ctx, db, user.ID); err != nil {
		logger.CtxWithError(ctx, "failed to issue initial phone code", err, "user_id", user.ID)
	}

	logger.CtxInfo(ctx, "account registered", "user_id", user.ID, "tipo", user.Role)
	return s.issueSession(db, user)
}

func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.VerificationStatus == models.VerificationStatusBanned {
		return nil, apperrors.ErrAccountBanned
	}

	if err := s.userRepo.UpdateLastLogin(db, user.ID); err != nil {
		logger.CtxWithError(ctx, "failed to record last login", err, "user_id", user.ID)
	}

	return s.issueSession(db, user)
}

func (s *authService) RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.LoginResponse, error) {
	stored, err := s.refreshRepo.FindByToken(db, refreshToken)
	if err != nil {
		if apperrors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.refreshRepo.DeleteByToken(db, refreshToken)
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(db, stored.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if user.VerificationStatus == models.VerificationStatusBanned {
		return nil, apperrors.ErrAccountBanned
	}

	// Rotate: the presented token is burned whether or not issuance succeeds.
	if err := s.refreshRepo.DeleteByToken(db, refreshToken); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.issueSession(db, user)
}

func (s *authService) Logout(ctx context.Context, db *gorm.DB, refreshToken string) error {
	if err := s.refreshRepo.DeleteByToken(db, refreshToken); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) issueSession(db *gorm.DB, user *models.User) (*dto.LoginResponse, error) {
	access, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.refreshRepo.Create(db, refresh); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		User:         NewUserResponse(user),
	}, nil
}

// NewUserResponse maps an account row to its API view.
func NewUserResponse(user *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Phone:              user.Phone,
		Role:               user.Role,
		IsActive:           user.IsActive,
		IsAdmin:            user.IsAdmin,
		VerificationStatus: user.VerificationStatus,
		VerificationStep:   user.VerificationStep,
		CreatedAt:          user.CreatedAt,
	}
}
