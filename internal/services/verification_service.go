package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"time"

	"servimarket_backend/internal/email"
	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/sms"
	"servimarket_backend/internal/verification"
	"servimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// VerificationService drives the self-service side of the verification
// pipeline: code issuance and checking, the selfie capture transition and
// the poll-safe status read. Whole-account approval lives in
// AdminReviewService; this service never writes StepCompleted.
type VerificationService interface {
	IssuePhoneCode(ctx context.Context, db *gorm.DB, userID string) (*dto.ResendResponse, error)
	IssueEmailCode(ctx context.Context, db *gorm.DB, userID string) (*dto.ResendResponse, error)

	// VerifyPhone checks the 6-digit SMS code and advances phone → documents.
	VerifyPhone(ctx context.Context, db *gorm.DB, userID, code string) error

	// VerifyEmail checks the 4-digit email code. It completes the same phone
	// step through the parallel channel, stamping the method accordingly.
	VerifyEmail(ctx context.Context, db *gorm.DB, userID, code string) error

	// SubmitSelfie records the live capture: the selfie document enters the
	// review queue and the account moves to step=face, status=in_review.
	SubmitSelfie(ctx context.Context, db *gorm.DB, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error)

	// CheckStatus is idempotent and side-effect-free; it is the only
	// operation meant to be polled.
	CheckStatus(ctx context.Context, db *gorm.DB, userID string) (*dto.StatusResponse, error)
}

type verificationService struct {
	userRepo     repositories.UserRepository
	documentRepo repositories.DocumentRepository
	codeRepo     repositories.CodeRepository
	documentSvc  DocumentService
	smsProvider  sms.Provider
	emailSender  email.Provider
	phoneCodeTTL time.Duration
	emailCodeTTL time.Duration
}

func NewVerificationService(
	userRepo repositories.UserRepository,
	documentRepo repositories.DocumentRepository,
	codeRepo repositories.CodeRepository,
	documentSvc DocumentService,
	smsProvider sms.Provider,
	emailSender email.Provider,
	phoneCodeTTL, emailCodeTTL time.Duration,
) VerificationService {
	return &verificationService{
		userRepo:     userRepo,
		documentRepo: documentRepo,
		codeRepo:     codeRepo,
		documentSvc:  documentSvc,
		smsProvider:  smsProvider,
		emailSender:  emailSender,
		phoneCodeTTL: phoneCodeTTL,
		emailCodeTTL: emailCodeTTL,
	}
}

// IssuePhoneCode generates a fresh 6-digit code. Storing it overwrites any
// previous code, which is what invalidates it (single active code).
func (s *verificationService) IssuePhoneCode(ctx context.Context, db *gorm.DB, userID string) (*dto.ResendResponse, error) {
	user, err := s.loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStep != models.StepPhone {
		return nil, apperrors.ErrStepOrder("phone is already verified")
	}

	code, err := generateNumericCode(6)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.codeRepo.Store(ctx, repositories.CodeKindPhone, user.ID, code, s.phoneCodeTTL); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.smsProvider.SendCode(ctx, user.Phone, code); err != nil {
		logger.CtxWithError(ctx, "failed to send sms code", err, "user_id", user.ID)
	}

	return &dto.ResendResponse{
		Message:    "Verification code sent",
		TTLMinutes: int(s.phoneCodeTTL.Minutes()),
	}, nil
}

func (s *verificationService) IssueEmailCode(ctx context.Context, db *gorm.DB, userID string) (*dto.ResendResponse, error) {
	user, err := s.loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStep != models.StepPhone {
		return nil, apperrors.ErrStepOrder("phone is already verified")
	}

	code, err := generateNumericCode(4)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.codeRepo.Store(ctx, repositories.CodeKindEmail, user.ID, code, s.emailCodeTTL); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.sendEmailCode(user.Email, code, int(s.emailCodeTTL.Minutes()))

	return &dto.ResendResponse{
		Message:    "Verification code sent",
		TTLMinutes: int(s.emailCodeTTL.Minutes()),
	}, nil
}

func (s *verificationService) VerifyPhone(ctx context.Context, db *gorm.DB, userID, code string) error {
	if !isNumericCode(code, 6) {
		return apperrors.ErrCodeFormat
	}
	return s.verifyCode(ctx, db, userID, repositories.CodeKindPhone, code, "sms")
}

func (s *verificationService) VerifyEmail(ctx context.Context, db *gorm.DB, userID, code string) error {
	if !isNumericCode(code, 4) {
		return apperrors.ErrCodeFormat
	}
	return s.verifyCode(ctx, db, userID, repositories.CodeKindEmail, code, "email")
}

func (s *verificationService) verifyCode(ctx context.Context, db *gorm.DB, userID string, kind repositories.CodeKind, code, via string) error {
	user, err := s.loadUser(db, userID)
	if err != nil {
		return err
	}
	if user.VerificationStep != models.StepPhone {
		return apperrors.ErrStepOrder("phone is already verified")
	}

	if err := s.codeRepo.Consume(ctx, kind, user.ID, code); err != nil {
		switch err {
		case repositories.ErrCodeMissing, repositories.ErrCodeMismatch:
			// An invalid code never mutates the step; the caller may retry
			// or request a fresh code.
			return apperrors.ErrCodeMismatch
		default:
			return apperrors.InternalError(err)
		}
	}

	if err := s.userRepo.MarkPhoneVerified(db, user.ID, via); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdateVerification(db, user.ID, models.StepDocuments, user.VerificationStatus); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "phone step completed", "user_id", user.ID, "via", via)
	return nil
}

func (s *verificationService) SubmitSelfie(ctx context.Context, db *gorm.DB, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	user, err := s.loadUser(db, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStep == models.StepPhone {
		return nil, apperrors.ErrStepOrder("phone must be verified before the selfie capture")
	}
	// A completed account never regresses through the capture; only an
	// administrator rejection can pull a finished account back.
	if !verification.ValidateTransition(user.VerificationStep, models.StepFace) {
		return nil, apperrors.ErrStepOrder("verification is already completed")
	}

	req.Type = models.DocumentTypeSelfie
	doc, err := s.documentSvc.Upload(ctx, db, req)
	if err != nil {
		return nil, err
	}

	// The capture puts the whole account under review. StepCompleted is
	// written by account approval only.
	if err := s.userRepo.UpdateVerification(db, user.ID, models.StepFace, models.VerificationStatusInReview); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return doc, nil
}

func (s *verificationService) CheckStatus(ctx context.Context, db *gorm.DB, userID string) (*dto.StatusResponse, error) {
	user, err := s.loadUser(db, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.documentRepo.LatestPerType(db, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ev := make(verification.Evidence, len(latest))
	docs := make([]dto.DocumentState, 0, len(latest))
	for docType, d := range latest {
		ev[docType] = d.Status
		docs = append(docs, dto.DocumentState{
			Type:            d.Type,
			Status:          d.Status,
			RejectionReason: d.RejectionReason,
			URL:             d.URL,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Type < docs[j].Type })

	return &dto.StatusResponse{
		IsVerified:         user.VerificationStatus == models.VerificationStatusVerified,
		IsActive:           user.IsActive,
		VerificationStatus: user.VerificationStatus,
		CurrentStep:        user.VerificationStep,
		NextStep:           verification.NextStep(user, ev),
		DocumentsSubState:  verification.SubState(ev),
		Documents:          docs,
	}, nil
}

// --- helpers ---

func (s *verificationService) loadUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("account", "Account not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if user.VerificationStatus == models.VerificationStatusBanned {
		return nil, apperrors.ErrAccountBanned
	}
	return user, nil
}

func (s *verificationService) sendEmailCode(to, code string, ttlMinutes int) {
	if s.emailSender == nil {
		return
	}
	go func() {
		if err := s.emailSender.SendVerificationCode(to, code, ttlMinutes); err != nil {
			logger.Error("failed to send verification email", "error", err)
		}
	}()
}

// generateNumericCode returns n random digits, zero-padded. Codes gate
// account access, so they come from crypto/rand.
func generateNumericCode(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func isNumericCode(code string, n int) bool {
	if len(code) != n {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
