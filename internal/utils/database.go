package utils

import (
	"coffeetour/internal/constants"
	"coffeetour/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// InitDatabase opens (or creates) the SQLite store and migrates the
// schema. Every script invocation opens its own handle; the store is
// cheap to open and there is no long-lived coordinating process.
func InitDatabase(dbPath string) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = constants.DefaultDatabasePath
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Post{}, &models.Correction{}); err != nil {
		return nil, err
	}

	return db, nil
}
