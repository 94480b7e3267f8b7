package repositories

import (
	"time"

	"servimarket_backend/internal/models"

	"gorm.io/gorm"
)

type OutboxRepository interface {
	// Create inserts a pending notification. Called inside the same
	// transaction as the state change that produced it.
	Create(db *gorm.DB, row *models.OutboxNotification) error

	// FindUnprocessed returns up to limit undelivered rows, oldest first.
	FindUnprocessed(db *gorm.DB, limit int) ([]models.OutboxNotification, error)

	// MarkProcessed stamps processed_at after successful delivery.
	MarkProcessed(db *gorm.DB, id string) error

	CountPending(db *gorm.DB) (int64, error)
}

type outboxRepository struct{}

func NewOutboxRepository() OutboxRepository {
	return &outboxRepository{}
}

func (r *outboxRepository) Create(db *gorm.DB, row *models.OutboxNotification) error {
	return db.Create(row).Error
}

func (r *outboxRepository) FindUnprocessed(db *gorm.DB, limit int) ([]models.OutboxNotification, error) {
	var rows []models.OutboxNotification
	err := db.Where("processed_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *outboxRepository) MarkProcessed(db *gorm.DB, id string) error {
	return db.Model(&models.OutboxNotification{}).
		Where("id = ?", id).
		Update("processed_at", time.Now()).Error
}

func (r *outboxRepository) CountPending(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.OutboxNotification{}).
		Where("processed_at IS NULL").
		Count(&count).Error
	return count, err
}
