package services

import (
	"context"
	"encoding/json"

	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/verification"
	"servimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AdminReviewService is the review-console backend. Every decision here is
// authoritative: the console shows hints (CanApprove), the server re-checks.
type AdminReviewService interface {
	// ListQueue returns documents matching the filter, grouped per account,
	// newest upload first within each group.
	ListQueue(db *gorm.DB, query *dto.AdminDocumentsQuery) ([]dto.AccountDocumentsGroup, error)

	ListAccountDocuments(db *gorm.DB, userID string) ([]dto.DocumentResponse, error)

	// ApproveDocument and RejectDocument transition exactly one pending
	// document. A second decision on the same document is a conflict.
	ApproveDocument(ctx context.Context, db *gorm.DB, reviewerID, docID string) (*dto.DocumentResponse, error)
	RejectDocument(ctx context.Context, db *gorm.DB, reviewerID, docID, reason string) (*dto.DocumentResponse, error)

	// ApproveAccount atomically activates the account and enqueues the
	// approval notification. The three-document precondition is re-read
	// inside the transaction, so a stale console cannot activate an account
	// whose evidence changed underneath it.
	ApproveAccount(ctx context.Context, db *gorm.DB, reviewerID, userID string) (*dto.ApproveAccountResponse, error)
}

type adminReviewService struct {
	userRepo     repositories.UserRepository
	documentRepo repositories.DocumentRepository
	outboxRepo   repositories.OutboxRepository
}

func NewAdminReviewService(
	userRepo repositories.UserRepository,
	documentRepo repositories.DocumentRepository,
	outboxRepo repositories.OutboxRepository,
) AdminReviewService {
	return &adminReviewService{
		userRepo:     userRepo,
		documentRepo: documentRepo,
		outboxRepo:   outboxRepo,
	}
}

func (s *adminReviewService) ListQueue(db *gorm.DB, query *dto.AdminDocumentsQuery) ([]dto.AccountDocumentsGroup, error) {
	filter := repositories.DocumentFilter{}
	if query != nil {
		filter.Status = models.DocumentStatus(query.Status)
		filter.UserID = query.UserID
	}

	docs, err := s.documentRepo.Find(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Group client-side, preserving the newest-first order of the scan.
	order := make([]string, 0)
	byUser := make(map[string][]dto.DocumentResponse)
	for i := range docs {
		d := &docs[i]
		if _, seen := byUser[d.UserID]; !seen {
			order = append(order, d.UserID)
		}
		byUser[d.UserID] = append(byUser[d.UserID], *dto.NewDocumentResponse(d))
	}

	groups := make([]dto.AccountDocumentsGroup, 0, len(order))
	for _, userID := range order {
		group := dto.AccountDocumentsGroup{
			UserID:    userID,
			Documents: byUser[userID],
		}
		if user, err := s.userRepo.FindByID(db, userID); err == nil {
			group.UserName = user.Name
			group.UserEmail = user.Email
		}
		latest, err := s.documentRepo.LatestPerType(db, userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		group.CanApprove = verification.AllRequiredApproved(evidenceOf(latest))
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *adminReviewService) ListAccountDocuments(db *gorm.DB, userID string) ([]dto.DocumentResponse, error) {
	if _, err := s.userRepo.FindByID(db, userID); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("account", "Account not found")
		}
		return nil, apperrors.InternalError(err)
	}

	docs, err := s.documentRepo.Find(db, repositories.DocumentFilter{UserID: userID})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, *dto.NewDocumentResponse(&docs[i]))
	}
	return out, nil
}

func (s *adminReviewService) ApproveDocument(ctx context.Context, db *gorm.DB, reviewerID, docID string) (*dto.DocumentResponse, error) {
	if _, err := s.loadPending(db, docID); err != nil {
		return nil, err
	}

	rows, err := s.documentRepo.Review(db, docID, models.DocumentStatusApproved, reviewerID, "")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if rows == 0 {
		// Lost the race against another reviewer.
		return nil, apperrors.ErrDocumentAlreadyReviewed
	}

	doc, err := s.documentRepo.FindByID(db, docID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "document approved", "document_id", docID, "reviewer_id", reviewerID)
	return dto.NewDocumentResponse(doc), nil
}

func (s *adminReviewService) RejectDocument(ctx context.Context, db *gorm.DB, reviewerID, docID, reason string) (*dto.DocumentResponse, error) {
	if reason == "" {
		return nil, apperrors.ErrRejectionReasonRequired
	}
	doc, err := s.loadPending(db, docID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.documentRepo.Review(tx, docID, models.DocumentStatusRejected, reviewerID, reason)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if rows == 0 {
			return apperrors.ErrDocumentAlreadyReviewed
		}

		// Rejecting a gating document sends the whole account back to the
		// documents step, regardless of how far it had advanced. An account
		// that was already activated loses access until it is re-approved;
		// is_active never coexists with a rejected status.
		if doc.Type.IsRequired() {
			if err := s.userRepo.UpdateVerification(tx, doc.UserID, models.StepDocuments, models.VerificationStatusRejected); err != nil {
				return apperrors.InternalError(err)
			}
			if err := s.userRepo.Deactivate(tx, doc.UserID); err != nil {
				return apperrors.InternalError(err)
			}
			payload, _ := json.Marshal(map[string]string{
				"tipo":           string(doc.Type),
				"rechazo_motivo": reason,
			})
			row := &models.OutboxNotification{
				UserID:   doc.UserID,
				Channel:  models.OutboxChannelEmail,
				Template: models.TemplateDocumentRejected,
				Payload:  payload,
			}
			if err := s.outboxRepo.Create(tx, row); err != nil {
				return apperrors.InternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err = s.documentRepo.FindByID(db, docID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "document rejected", "document_id", docID, "reviewer_id", reviewerID)
	return dto.NewDocumentResponse(doc), nil
}

func (s *adminReviewService) ApproveAccount(ctx context.Context, db *gorm.DB, reviewerID, userID string) (*dto.ApproveAccountResponse, error) {
	resp := &dto.ApproveAccountResponse{UserID: userID}

	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(tx, userID)
		if err != nil {
			if apperrors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.NewNotFoundError("account", "Account not found")
			}
			return apperrors.InternalError(err)
		}
		if user.VerificationStatus == models.VerificationStatusBanned {
			return apperrors.ErrAccountBanned
		}
		if user.IsActive && user.VerificationStatus == models.VerificationStatusVerified {
			// Already approved; a repeat is a no-op and must not enqueue a
			// second notification.
			resp.IsActive = true
			resp.VerificationStatus = string(models.VerificationStatusVerified)
			return nil
		}

		latest, err := s.documentRepo.LatestPerType(tx, userID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if !verification.AllRequiredApproved(evidenceOf(latest)) {
			return apperrors.ErrApprovalPrecondition
		}

		if err := s.userRepo.Activate(tx, userID); err != nil {
			return apperrors.InternalError(err)
		}

		payload, _ := json.Marshal(map[string]string{
			"nombre": user.Name,
			"email":  user.Email,
		})
		row := &models.OutboxNotification{
			UserID:   userID,
			Channel:  approvalChannel(user),
			Template: models.TemplateAccountApproved,
			Payload:  payload,
		}
		if err := s.outboxRepo.Create(tx, row); err != nil {
			return apperrors.InternalError(err)
		}

		resp.IsActive = true
		resp.VerificationStatus = string(models.VerificationStatusVerified)
		resp.NotificationsQueued = 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "account approved", "user_id", userID, "reviewer_id", reviewerID, "queued", resp.NotificationsQueued)
	return resp, nil
}

func (s *adminReviewService) loadPending(db *gorm.DB, docID string) (*models.Document, error) {
	doc, err := s.documentRepo.FindByID(db, docID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, apperrors.NewNotFoundError("document", "Document not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if doc.IsReviewed() {
		return nil, apperrors.ErrDocumentAlreadyReviewed
	}
	return doc, nil
}

// approvalChannel picks where the approval notification goes. Email is the
// default; accounts registered without an email fall back to WhatsApp.
func approvalChannel(user *models.User) models.OutboxChannel {
	if user.Email == "" && user.Phone != "" {
		return models.OutboxChannelWhatsApp
	}
	return models.OutboxChannelEmail
}

func evidenceOf(latest map[models.DocumentType]models.Document) verification.Evidence {
	ev := make(verification.Evidence, len(latest))
	for t, d := range latest {
		ev[t] = d.Status
	}
	return ev
}
