package config_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"photodex/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := config.NewConfig("/data/photodex")

	if cfg.BaseDir != "/data/photodex" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
	if cfg.LogDir != filepath.Join("/data/photodex", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Language)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Extractor.Type != "native" {
		t.Errorf("Extractor.Type = %q, want native", cfg.Extractor.Type)
	}
	if cfg.Geocoder.RequestsPerSecond != 1 {
		t.Errorf("Geocoder.RequestsPerSecond = %v, want 1", cfg.Geocoder.RequestsPerSecond)
	}
	if cfg.Concurrency.HashWorkers != 200 {
		t.Errorf("Concurrency.HashWorkers = %d, want 200", cfg.Concurrency.HashWorkers)
	}
}

func TestManager_ReadWrite(t *testing.T) {
	t.Run("round trips a config", func(t *testing.T) {
		cfg := config.NewConfig("/data/photodex")
		cfg.Language = "es"
		cfg.Geocoder.BaseURL = "http://localhost:8080"

		m := &config.Manager{}
		var buf bytes.Buffer
		if err := m.Write(&buf, cfg); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		got, err := m.Read(&buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got.Language != "es" {
			t.Errorf("Language = %q, want es", got.Language)
		}
		if got.Geocoder.BaseURL != "http://localhost:8080" {
			t.Errorf("Geocoder.BaseURL = %q", got.Geocoder.BaseURL)
		}
		if got.Database.DataDir != cfg.Database.DataDir {
			t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, cfg.Database.DataDir)
		}
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		m := &config.Manager{}
		if _, err := m.Read(strings.NewReader("not [valid toml")); err == nil {
			t.Error("Read() expected error for malformed input")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photodex.toml")
		cfg := config.NewConfig("/data/photodex")

		if err := config.Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.BaseDir != cfg.BaseDir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
		}
	})

	t.Run("refuses to overwrite an existing config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photodex.toml")
		cfg := config.NewConfig("/data/photodex")

		if err := config.Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := config.Init(path, cfg); err == nil {
			t.Error("second Init() expected error")
		}
	})
}

func TestReadFromFile_Missing(t *testing.T) {
	if _, err := config.ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("ReadFromFile() expected error for missing file")
	}
}
