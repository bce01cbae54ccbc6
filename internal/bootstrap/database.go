package bootstrap

import (
	"fmt"
	"log"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/store"
)

// initializeDatabase creates and migrates the database connection
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}
