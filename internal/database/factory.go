package database

import (
	"fmt"
	"path/filepath"

	"photodex/internal/config"
	"photodex/internal/photo"
)

const databaseFilename = "photodex.db"

// NewDatabaseFromConfig creates a Database based on the configuration.
// The "memory" type is migrated eagerly since an in-memory database
// starts empty on every open.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (photo.Database, error) {
	switch cfg.Type {
	case "", "sqlite":
		db, err := NewSQLiteDatabase(filepath.Join(cfg.DataDir, databaseFilename))
		if err != nil {
			return nil, fmt.Errorf("creating sqlite database: %w", err)
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, fmt.Errorf("creating in-memory database: %w", err)
		}
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
