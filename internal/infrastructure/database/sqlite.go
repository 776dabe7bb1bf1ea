package database

import (
	"fmt"

	"procedure-scheduler/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewSQLiteConnection opens the local durable store. Use ":memory:" for an
// in-process database.
func NewSQLiteConnection(path string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// sqlite allows one writer; a single connection also keeps ":memory:" shared
	sqlDB.SetMaxOpenConns(1)

	log.Infof("Successfully opened SQLite database at %s", path)

	return db, nil
}

// AutoMigrate creates the schema on stores that do not run SQL migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Procedure{}, &entity.SlotBinding{}, &entity.AuditLog{})
}
