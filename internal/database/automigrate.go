package database

import (
	"fmt"

	"gorm.io/gorm"

	"kanban-sync/internal/domain"
)

// AutoMigrate creates or updates the local store schema
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.LocalEntry{}); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}
