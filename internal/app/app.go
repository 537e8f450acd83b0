package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photodex/internal/config"
	"photodex/internal/database"
	"photodex/internal/fs"
	"photodex/internal/geocode"
	"photodex/internal/meta"
	"photodex/internal/model"
	"photodex/internal/photo"
	"photodex/internal/reader"
)

// PhotodexApp is the application layer between the CLI and the photo
// services. It constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and manages resource lifecycles
// on Close.
type PhotodexApp struct {
	cfg             *config.Config
	db              photo.Database
	fsmgr           photo.FilesystemManager
	index           *photo.Index
	resolver        *photo.Resolver
	renamer         *photo.Renamer
	reader          photo.PhotoReader
	extractorCloser func() error
	logFile         *os.File
}

// NewPhotodexApp creates a fully wired PhotodexApp from the given config.
// operation identifies the CLI command being run (e.g. "index", "resolve").
// The caller must call Close when done.
func NewPhotodexApp(cfg *config.Config, operation string) (*PhotodexApp, error) {
	fsmgr := fs.NewOSFilesystemManager()

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	extractor, extractorCloser, err := meta.NewExtractorFromConfig(cfg.Extractor)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating metadata extractor: %w", err)
	}

	var geocoderOpts []geocode.Option
	if cfg.Geocoder.BaseURL != "" {
		geocoderOpts = append(geocoderOpts, geocode.WithBaseURL(cfg.Geocoder.BaseURL))
	}
	if cfg.Geocoder.RequestsPerSecond > 0 {
		geocoderOpts = append(geocoderOpts, geocode.WithRateLimit(cfg.Geocoder.RequestsPerSecond))
	}
	geocoder := geocode.NewNominatimClient(geocoderOpts...)

	opID := fmt.Sprintf("%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"))
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		closeExtractor(extractorCloser)
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	index := photo.NewIndex(fsmgr, photo.NewMD5Hasher(), extractor, db, logger, cfg.Concurrency.HashWorkers)
	resolver := photo.NewResolver(db, geocoder, logger, photo.UUIDGenerator{})
	renamer := photo.NewRenamer(fsmgr, logger, photo.RealClock{}, cfg.Concurrency.RenameWorkers)

	return &PhotodexApp{
		cfg:             cfg,
		db:              db,
		fsmgr:           fsmgr,
		index:           index,
		resolver:        resolver,
		renamer:         renamer,
		reader:          reader.NewBase64PhotoReader(logger),
		extractorCloser: extractorCloser,
		logFile:         logFile,
	}, nil
}

// Language returns the effective display language: the explicit override if
// non-empty, otherwise the configured default.
func (a *PhotodexApp) Language(override string) string {
	if override != "" {
		return override
	}
	if a.cfg.Language != "" {
		return a.cfg.Language
	}
	return "en"
}

// IndexDirectory scans the given directory and returns the populated tree.
// When recursive is true, subdirectories are indexed too and their photo
// lists are loaded eagerly.
func (a *PhotodexApp) IndexDirectory(ctx context.Context, rawPath string, recursive bool) (*photo.Tree, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.index.BuildTree(ctx, absPath, recursive)
}

// ResolveLocations indexes the directory, then resolves a place name for
// every photo that carries GPS coordinates. Resolutions are returned keyed
// by file path.
func (a *PhotodexApp) ResolveLocations(ctx context.Context, rawPath string, recursive bool, language string) (*photo.Tree, map[string]*photo.Resolution, error) {
	lang := a.Language(language)
	tree, err := a.IndexDirectory(ctx, rawPath, recursive)
	if err != nil {
		return nil, nil, err
	}

	resolutions := make(map[string]*photo.Resolution)
	for _, node := range tree.FlatNodes() {
		for _, p := range node.Items {
			if !p.HasGPS() {
				continue
			}
			res, err := a.resolver.Resolve(ctx, p, lang)
			if err != nil {
				return tree, resolutions, err
			}
			resolutions[p.Path] = res
		}
	}
	return tree, resolutions, nil
}

// RenameFiles indexes the directory and renames every labeled photo in it
// to its label. When addSortPrefix is true, files get a zero-padded ordinal
// prefix following chronological order.
func (a *PhotodexApp) RenameFiles(ctx context.Context, rawPath string, addSortPrefix bool) (*model.RenamingResult, error) {
	tree, err := a.IndexDirectory(ctx, rawPath, false)
	if err != nil {
		return nil, err
	}
	return a.renamer.RenameAll(ctx, tree.Root(), addSortPrefix)
}

// ImageSrc renders the file as an embeddable data URI, falling back to a
// generic placeholder when the file cannot be decoded.
func (a *PhotodexApp) ImageSrc(ctx context.Context, rawPath string) (string, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	src, err := a.reader.GetImgSrc(ctx, absPath)
	if err != nil || src == "" {
		// Undecodable files still get a renderable placeholder.
		return a.reader.GetGenericImageSrc(), nil
	}
	return src, nil
}

// MigrateDB applies pending schema migrations to the catalog database.
func (a *PhotodexApp) MigrateDB() error {
	migrator, ok := a.db.(interface{ MigrateUp() error })
	if !ok {
		return fmt.Errorf("database type does not support migrations")
	}
	return migrator.MigrateUp()
}

// Close releases the extractor, database and log file.
func (a *PhotodexApp) Close() error {
	var firstErr error

	if err := closeExtractor(a.extractorCloser); err != nil {
		firstErr = fmt.Errorf("closing metadata extractor: %w", err)
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}

func closeExtractor(closer func() error) error {
	if closer == nil {
		return nil
	}
	return closer()
}
