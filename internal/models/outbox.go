package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxNotification is a durable pending notification. Rows are inserted in
// the same transaction as the account flip that caused them and drained
// asynchronously by the outbox worker.
type OutboxNotification struct {
	BaseModel
	UserID      string         `gorm:"not null;index"`
	Channel     OutboxChannel  `gorm:"type:varchar(20);not null"`
	Template    string         `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	ProcessedAt *time.Time     `gorm:"index"`
}

func (OutboxNotification) TableName() string {
	return "notifications_outbox"
}

// Outbox template names.
const (
	TemplateAccountApproved  = "account_approved"
	TemplateDocumentRejected = "document_rejected"
)
