package models

import "time"

// Document is one piece of uploaded identity evidence. A fresh upload of the
// same type supersedes the previous one for approval gating; SupersedesID is
// a back-reference to the row it replaced.
type Document struct {
	BaseModel
	UserID string       `gorm:"column:user_id;not null;index"`
	Type   DocumentType `gorm:"column:tipo;type:varchar(20);not null;index"`
	URL    string       `gorm:"column:url;not null"`

	Status          DocumentStatus `gorm:"column:estado;type:varchar(20);default:'pending'"`
	RejectionReason string         `gorm:"column:rechazo_motivo"`

	UploadedAt time.Time  `gorm:"column:subido_en;default:now()"`
	ReviewedAt *time.Time `gorm:"column:revisado_en"`
	ReviewedBy string     `gorm:"column:revisado_por"`

	SupersedesID *string `gorm:"column:supersedes_id"`
}

func (Document) TableName() string {
	return "documentos"
}

// IsReviewed reports whether a review decision was already recorded.
// A document transitions exactly once out of pending.
func (d *Document) IsReviewed() bool {
	return d.Status != DocumentStatusPending
}
