package database

import (
	"fmt"

	"servimarket_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate creates and updates the schema for all models. The uuid extension
// backs the uuid_generate_v4() column default.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.OutboxNotification{},
		&models.RefreshToken{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	return nil
}
