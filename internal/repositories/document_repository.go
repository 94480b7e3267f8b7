package repositories

import (
	"errors"
	"time"

	"servimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentFilter narrows document listings. Zero values mean "no filter".
type DocumentFilter struct {
	UserID string
	Type   models.DocumentType
	Status models.DocumentStatus
}

type DocumentRepository interface {
	Create(db *gorm.DB, doc *models.Document) error
	FindByID(db *gorm.DB, id string) (*models.Document, error)

	// Find returns documents matching the filter, newest upload first.
	// Restartable: a plain re-query, no cursor state.
	Find(db *gorm.DB, filter DocumentFilter) ([]models.Document, error)

	// LatestByType returns the most recent upload of the given type for the
	// user, the one that counts for approval gating.
	LatestByType(db *gorm.DB, userID string, docType models.DocumentType) (*models.Document, error)

	// LatestPerType returns the authoritative document for every type the
	// user has uploaded.
	LatestPerType(db *gorm.DB, userID string) (map[models.DocumentType]models.Document, error)

	// Review records a single review decision. It only touches rows still in
	// pending state and reports how many rows changed, letting the service
	// distinguish "already reviewed" from success.
	Review(db *gorm.DB, docID string, status models.DocumentStatus, reviewerID, reason string) (int64, error)
}

type documentRepository struct{}

func NewDocumentRepository() DocumentRepository {
	return &documentRepository{}
}

func (r *documentRepository) Create(db *gorm.DB, doc *models.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	return db.Create(doc).Error
}

func (r *documentRepository) FindByID(db *gorm.DB, id string) (*models.Document, error) {
	var doc models.Document
	err := db.First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Find(db *gorm.DB, filter DocumentFilter) ([]models.Document, error) {
	query := db.Model(&models.Document{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("tipo = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("estado = ?", filter.Status)
	}

	var docs []models.Document
	err := query.Order("subido_en DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) LatestByType(db *gorm.DB, userID string, docType models.DocumentType) (*models.Document, error) {
	var doc models.Document
	err := db.Where("user_id = ? AND tipo = ?", userID, docType).
		Order("subido_en DESC").
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) LatestPerType(db *gorm.DB, userID string) (map[models.DocumentType]models.Document, error) {
	var docs []models.Document
	err := db.Where("user_id = ?", userID).
		Order("subido_en DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[models.DocumentType]models.Document)
	for _, d := range docs {
		if _, seen := latest[d.Type]; !seen {
			latest[d.Type] = d
		}
	}
	return latest, nil
}

func (r *documentRepository) Review(db *gorm.DB, docID string, status models.DocumentStatus, reviewerID, reason string) (int64, error) {
	now := time.Now()
	result := db.Model(&models.Document{}).
		Where("id = ? AND estado = ?", docID, models.DocumentStatusPending).
		Updates(map[string]interface{}{
			"estado":         status,
			"rechazo_motivo": reason,
			"revisado_en":    now,
			"revisado_por":   reviewerID,
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}
