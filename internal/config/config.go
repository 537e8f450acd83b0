package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for photodex.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	Language    string            `toml:"language"`
	Database    DatabaseConfig    `toml:"database"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Geocoder    GeocoderConfig    `toml:"geocoder"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
}

// DatabaseConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ExtractorConfig selects the metadata extraction backend.
type ExtractorConfig struct {
	Type string `toml:"type"` // "native" (default) or "exiftool"
}

// GeocoderConfig holds reverse-geocoding settings.
type GeocoderConfig struct {
	BaseURL           string  `toml:"base_url,omitempty"` // empty means the public Nominatim endpoint
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ConcurrencyConfig bounds the worker pools. The limits are tuning
// parameters, not correctness contracts; zero values fall back to
// defaults at wiring time.
type ConcurrencyConfig struct {
	HashWorkers   int `toml:"hash_workers"`
	RenameWorkers int `toml:"rename_workers"`
}

// NewConfig creates a Config with the provided base directory and default
// settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		Language: "en",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Extractor: ExtractorConfig{Type: "native"},
		Geocoder:  GeocoderConfig{RequestsPerSecond: 1},
		Concurrency: ConcurrencyConfig{
			HashWorkers:   200,
			RenameWorkers: 200,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the
// provided Config. Fails if a config already exists there.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
