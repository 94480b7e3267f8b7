package services

import (
	"time"

	"servimarket_backend/internal/config"
	"servimarket_backend/internal/email"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/sms"
	"servimarket_backend/internal/storage"
)

// ServiceContainer wires every service with its repositories and providers.
type ServiceContainer struct {
	Auth         AuthService
	Verification VerificationService
	Documents    DocumentService
	AdminReview  AdminReviewService
}

func NewServiceContainer(
	cfg *config.Config,
	codeRepo repositories.CodeRepository,
	store storage.Storage,
	smsProvider sms.Provider,
	emailProvider email.Provider,
) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	documentRepo := repositories.NewDocumentRepository()
	outboxRepo := repositories.NewOutboxRepository()
	refreshRepo := repositories.NewRefreshTokenRepository()

	documentSvc := NewDocumentService(documentRepo, userRepo, store, UploadLimits{
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	verificationSvc := NewVerificationService(
		userRepo,
		documentRepo,
		codeRepo,
		documentSvc,
		smsProvider,
		emailProvider,
		time.Duration(cfg.Verification.PhoneCodeTTLMinutes)*time.Minute,
		time.Duration(cfg.Verification.EmailCodeTTLMinutes)*time.Minute,
	)

	return &ServiceContainer{
		Auth:         NewAuthService(userRepo, refreshRepo, verificationSvc),
		Verification: verificationSvc,
		Documents:    documentSvc,
		AdminReview:  NewAdminReviewService(userRepo, documentRepo, outboxRepo),
	}
}
