package database

import (
	"fmt"
	"log"

	"github.com/pageza/caltrack/web/internal/models"
	"gorm.io/gorm"
)

// RunMigrations creates or updates the key/value table
func RunMigrations(db *gorm.DB) error {
	log.Printf("Running auto-migration on %s", db.Dialector.Name())
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return nil
}
