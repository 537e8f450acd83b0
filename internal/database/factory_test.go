package database_test

import (
	"testing"

	"photodex/internal/config"
	"photodex/internal/database"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("creates sqlite database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()}

		got, err := database.NewDatabaseFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() error = %v", err)
		}
		defer got.Close()

		if got == nil {
			t.Fatal("NewDatabaseFromConfig() returned nil")
		}
	})

	t.Run("creates migrated in-memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}

		got, err := database.NewDatabaseFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() error = %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("in-memory database not migrated: %v", err)
		}
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "oracle"}
		if _, err := database.NewDatabaseFromConfig(cfg); err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type")
		}
	})
}
