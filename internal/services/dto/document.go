package dto

import (
	"mime/multipart"
	"time"

	"servimarket_backend/internal/models"
)

// UploadDocumentRequest uploads one piece of identity evidence.
type UploadDocumentRequest struct {
	UserID string                `json:"-"` // from auth context
	Type   models.DocumentType   `form:"tipo" validate:"required,is-document-type"`
	File   *multipart.FileHeader `json:"-"`
}

// DocumentResponse is the API view of a document row.
type DocumentResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	Type            models.DocumentType   `json:"tipo"`
	URL             string                `json:"url"`
	Status          models.DocumentStatus `json:"estado"`
	RejectionReason string                `json:"rechazo_motivo,omitempty"`
	UploadedAt      time.Time             `json:"subido_en"`
	ReviewedAt      *time.Time            `json:"revisado_en,omitempty"`
	ReviewedBy      string                `json:"revisado_por,omitempty"`
	SupersedesID    *string               `json:"supersedes_id,omitempty"`
}

// ListDocumentsQuery filters the self-service document listing.
type ListDocumentsQuery struct {
	Type   string `form:"tipo" validate:"omitempty,is-document-type"`
	Status string `form:"estado" validate:"omitempty,is-document-status"`
}

// NewDocumentResponse maps a model row to its API view.
func NewDocumentResponse(d *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		Type:            d.Type,
		URL:             d.URL,
		Status:          d.Status,
		RejectionReason: d.RejectionReason,
		UploadedAt:      d.UploadedAt,
		ReviewedAt:      d.ReviewedAt,
		ReviewedBy:      d.ReviewedBy,
		SupersedesID:    d.SupersedesID,
	}
}
