package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(tutoring.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
