package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/models"
)

// ConnectPostgres opens the record-store connection using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the record-store tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Rubric{},
		&models.Criterion{},
		&models.Review{},
		&models.CriterionFeedback{},
	)
}
