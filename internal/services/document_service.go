package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/internal/storage"
	"servimarket_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadLimits constrains incoming evidence files. Both checks run before a
// single byte reaches the storage backend.
type UploadLimits struct {
	MaxSize      int64
	AllowedTypes []string
}

type DocumentService interface {
	// Upload validates, stores and records one evidence file. The new row
	// supersedes the previous latest upload of the same type, if any.
	Upload(ctx context.Context, db *gorm.DB, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error)

	// ListForAccount returns the account's documents, newest first.
	ListForAccount(db *gorm.DB, userID string, query *dto.ListDocumentsQuery) ([]dto.DocumentResponse, error)

	Get(db *gorm.DB, docID string) (*models.Document, error)
}

type documentService struct {
	documentRepo repositories.DocumentRepository
	userRepo     repositories.UserRepository
	store        storage.Storage
	limits       UploadLimits
}

func NewDocumentService(
	documentRepo repositories.DocumentRepository,
	userRepo repositories.UserRepository,
	store storage.Storage,
	limits UploadLimits,
) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		userRepo:     userRepo,
		store:        store,
		limits:       limits,
	}
}

func (s *documentService) Upload(ctx context.Context, db *gorm.DB, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	user, err := s.userRepo.FindByID(db, req.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("account", "Account not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if user.VerificationStatus == models.VerificationStatusBanned {
		return nil, apperrors.ErrAccountBanned
	}
	if user.VerificationStep == models.StepPhone {
		return nil, apperrors.ErrStepOrder("phone must be verified before uploading documents")
	}

	if req.File == nil {
		return nil, apperrors.NewBadRequestError("File is required")
	}
	contentType := req.File.Header.Get("Content-Type")
	if !s.typeAllowed(contentType) {
		return nil, apperrors.ErrInvalidFileType
	}
	if req.File.Size > s.limits.MaxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	file, err := req.File.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(req.File.Filename))
	if ext == "" {
		ext = extensionFor(contentType)
	}
	path := fmt.Sprintf("documents/%s/%s_%s%s", req.UserID, req.Type, uuid.NewString(), ext)

	// No document row exists until the bytes are durably stored.
	if err := s.store.Save(ctx, path, file, contentType); err != nil {
		logger.CtxWithError(ctx, "document storage write failed", err, "user_id", req.UserID, "tipo", req.Type)
		return nil, apperrors.ErrStorageUnavailable(err)
	}
	url, err := s.store.GetURL(ctx, path)
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable(err)
	}

	var supersedes *string
	prev, err := s.documentRepo.LatestByType(db, req.UserID, req.Type)
	if err != nil && !apperrors.Is(err, repositories.ErrDocumentNotFound) {
		return nil, apperrors.InternalError(err)
	}
	if prev != nil {
		supersedes = &prev.ID
	}

	doc := &models.Document{
		UserID:       req.UserID,
		Type:         req.Type,
		URL:          url,
		Status:       models.DocumentStatusPending,
		SupersedesID: supersedes,
	}
	if err := s.documentRepo.Create(db, doc); err != nil {
		return nil, apperrors.InternalError(err)
	}

	// A re-upload after a rejection puts the account back in the queue.
	if user.VerificationStatus == models.VerificationStatusRejected {
		if err := s.userRepo.UpdateVerification(db, user.ID, models.StepDocuments, models.VerificationStatusPending); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	logger.CtxInfo(ctx, "document uploaded", "user_id", req.UserID, "tipo", req.Type, "document_id", doc.ID)
	return dto.NewDocumentResponse(doc), nil
}

func (s *documentService) ListForAccount(db *gorm.DB, userID string, query *dto.ListDocumentsQuery) ([]dto.DocumentResponse, error) {
	filter := repositories.DocumentFilter{UserID: userID}
	if query != nil {
		filter.Type = models.DocumentType(query.Type)
		filter.Status = models.DocumentStatus(query.Status)
	}

	docs, err := s.documentRepo.Find(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, *dto.NewDocumentResponse(&docs[i]))
	}
	return out, nil
}

func (s *documentService) Get(db *gorm.DB, docID string) (*models.Document, error) {
	doc, err := s.documentRepo.FindByID(db, docID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, apperrors.NewNotFoundError("document", "Document not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return doc, nil
}

func (s *documentService) typeAllowed(contentType string) bool {
	for _, t := range s.limits.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ""
	}
}
