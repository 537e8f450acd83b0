package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"photodex/internal/database/migrations"
	"photodex/internal/model"
	"photodex/internal/photo"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the photo.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:   db,
		path: path,
	}, nil
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Photo catalog operations

func (s *SQLiteDatabase) GetPhotoByMd5(md5Sum string) (*model.Photo, error) {
	photos, err := s.queryPhotos(
		"SELECT p.md5_sum, p.path, p.label, p.taken_date, p.modified_date, p.latitude, p.longitude, p.altitude_meters, pl.language, pl.location "+
			"FROM photos p LEFT JOIN photos_localized_info pl ON p.md5_sum = pl.md5_sum WHERE p.md5_sum = ?", md5Sum)
	if err != nil {
		return nil, fmt.Errorf("finding photo by md5: %w", err)
	}
	if len(photos) == 0 {
		return nil, nil // Not found
	}
	return photos[0], nil
}

func (s *SQLiteDatabase) GetPhotosByMd5List(md5Sums []string) ([]*model.Photo, error) {
	if len(md5Sums) == 0 {
		return []*model.Photo{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(md5Sums)), ",")
	args := make([]any, len(md5Sums))
	for i, m := range md5Sums {
		args[i] = m
	}

	photos, err := s.queryPhotos(
		"SELECT p.md5_sum, p.path, p.label, p.taken_date, p.modified_date, p.latitude, p.longitude, p.altitude_meters, pl.language, pl.location "+
			"FROM photos p LEFT JOIN photos_localized_info pl ON p.md5_sum = pl.md5_sum WHERE p.md5_sum IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("finding photos by md5 list: %w", err)
	}
	return photos, nil
}

func (s *SQLiteDatabase) GetPhotosByCoordinates(latitude, longitude float64) ([]*model.Photo, error) {
	photos, err := s.queryPhotos(
		"SELECT p.md5_sum, p.path, p.label, p.taken_date, p.modified_date, p.latitude, p.longitude, p.altitude_meters, pl.language, pl.location "+
			"FROM photos p LEFT JOIN photos_localized_info pl ON p.md5_sum = pl.md5_sum WHERE p.latitude = ? AND p.longitude = ?", latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("finding photos by coordinates: %w", err)
	}
	return photos, nil
}

func (s *SQLiteDatabase) AddPhoto(p *model.Photo) error {
	if p == nil {
		return errors.New("photo must not be nil")
	}
	if strings.TrimSpace(p.Md5Sum) == "" {
		return errors.New("photo md5 sum must be specified")
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO photos (md5_sum, path, label, taken_date, modified_date, latitude, longitude, altitude_meters) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.Md5Sum, p.Path, nullString(p.Label), p.TakenDate, p.ModifiedDate, p.Latitude, p.Longitude, p.AltitudeMeters)
	if err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}

	if err := insertPhotoLocalizedInfo(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) EditPhoto(p *model.Photo) error {
	if p == nil {
		return errors.New("photo must not be nil")
	}
	if strings.TrimSpace(p.Md5Sum) == "" {
		return errors.New("photo md5 sum must be specified")
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE photos SET path = ?, label = ?, taken_date = ?, modified_date = ?, latitude = ?, longitude = ?, altitude_meters = ? WHERE md5_sum = ?",
		p.Path, nullString(p.Label), p.TakenDate, p.ModifiedDate, p.Latitude, p.Longitude, p.AltitudeMeters, p.Md5Sum)
	if err != nil {
		return fmt.Errorf("updating photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("photo with md5 %s was not found", p.Md5Sum)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos_localized_info WHERE md5_sum = ?", p.Md5Sum); err != nil {
		return fmt.Errorf("clearing photo localized info: %w", err)
	}
	if err := insertPhotoLocalizedInfo(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeletePhoto(md5Sum string) error {
	res, err := s.db.Exec("DELETE FROM photos WHERE md5_sum = ?", md5Sum)
	if err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("photo with md5 %s was not found", md5Sum)
	}
	return nil
}

// Geolocation cache operations

func (s *SQLiteDatabase) GetGeolocationByCoordinates(latitude, longitude float64) (*model.Geolocation, error) {
	geos, err := s.queryGeolocations(
		"SELECT g.id, g.latitude, g.longitude, g.error, gl.language, gl.location "+
			"FROM geolocations g LEFT JOIN geolocations_localized_info gl ON g.id = gl.geolocation_id WHERE g.latitude = ? AND g.longitude = ?",
		latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("finding geolocation by coordinates: %w", err)
	}
	if len(geos) == 0 {
		return nil, nil // Not found
	}
	return geos[0], nil
}

func (s *SQLiteDatabase) AddGeolocation(g *model.Geolocation) error {
	if g == nil {
		return errors.New("geolocation must not be nil")
	}
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("geolocation ID must be specified")
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO geolocations (id, latitude, longitude, error) VALUES (?, ?, ?, ?)",
		g.ID, g.Latitude, g.Longitude, nullString(g.Error))
	if err != nil {
		return fmt.Errorf("inserting geolocation: %w", err)
	}

	if err := insertGeolocationLocalizedInfo(ctx, tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) EditGeolocation(g *model.Geolocation) error {
	if g == nil {
		return errors.New("geolocation must not be nil")
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE geolocations SET latitude = ?, longitude = ?, error = ? WHERE id = ?",
		g.Latitude, g.Longitude, nullString(g.Error), g.ID)
	if err != nil {
		return fmt.Errorf("updating geolocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("geolocation with id %s was not found", g.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM geolocations_localized_info WHERE geolocation_id = ?", g.ID); err != nil {
		return fmt.Errorf("clearing geolocation localized info: %w", err)
	}
	if err := insertGeolocationLocalizedInfo(ctx, tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteGeolocation(id string) error {
	res, err := s.db.Exec("DELETE FROM geolocations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting geolocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("geolocation with id %s was not found", id)
	}
	return nil
}

// queryPhotos runs a photo+localized-info join and folds the rows into
// distinct Photo values, one per md5 sum, preserving row order.
func (s *SQLiteDatabase) queryPhotos(query string, args ...any) ([]*model.Photo, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMd5 := make(map[string]*model.Photo)
	var ordered []*model.Photo

	for rows.Next() {
		var (
			p        model.Photo
			label    sql.NullString
			taken    sql.NullTime
			modified sql.NullTime
			lat      sql.NullFloat64
			lon      sql.NullFloat64
			alt      sql.NullFloat64
			language sql.NullString
			location sql.NullString
		)
		if err := rows.Scan(&p.Md5Sum, &p.Path, &label, &taken, &modified, &lat, &lon, &alt, &language, &location); err != nil {
			return nil, err
		}

		existing, ok := byMd5[p.Md5Sum]
		if !ok {
			p.Label = label.String
			if taken.Valid {
				t := taken.Time
				p.TakenDate = &t
			}
			if modified.Valid {
				t := modified.Time
				p.ModifiedDate = &t
			}
			if lat.Valid {
				v := lat.Float64
				p.Latitude = &v
			}
			if lon.Valid {
				v := lon.Float64
				p.Longitude = &v
			}
			if alt.Valid {
				v := alt.Float64
				p.AltitudeMeters = &v
			}
			existing = &p
			byMd5[p.Md5Sum] = existing
			ordered = append(ordered, existing)
		}
		if language.Valid {
			existing.LocalizedInfo = append(existing.LocalizedInfo, model.PhotoLocalizedInfo{
				Md5Sum:   existing.Md5Sum,
				Language: language.String,
				Location: location.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

// queryGeolocations runs an entry+localized-info join and folds the rows
// into distinct Geolocation values, one per entry ID.
func (s *SQLiteDatabase) queryGeolocations(query string, args ...any) ([]*model.Geolocation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*model.Geolocation)
	var ordered []*model.Geolocation

	for rows.Next() {
		var (
			g        model.Geolocation
			errText  sql.NullString
			language sql.NullString
			location sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Latitude, &g.Longitude, &errText, &language, &location); err != nil {
			return nil, err
		}

		existing, ok := byID[g.ID]
		if !ok {
			g.Error = errText.String
			existing = &g
			byID[g.ID] = existing
			ordered = append(ordered, existing)
		}
		if language.Valid {
			existing.LocalizedInfo = append(existing.LocalizedInfo, model.GeolocationLocalizedInfo{
				GeolocationID: existing.ID,
				Language:      language.String,
				Location:      location.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

func insertPhotoLocalizedInfo(ctx context.Context, tx *sql.Tx, p *model.Photo) error {
	for _, li := range p.LocalizedInfo {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO photos_localized_info (md5_sum, language, location) VALUES (?, ?, ?)",
			p.Md5Sum, li.Language, li.Location)
		if err != nil {
			return fmt.Errorf("inserting photo localized info: %w", err)
		}
	}
	return nil
}

func insertGeolocationLocalizedInfo(ctx context.Context, tx *sql.Tx, g *model.Geolocation) error {
	for _, li := range g.LocalizedInfo {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO geolocations_localized_info (geolocation_id, language, location) VALUES (?, ?, ?)",
			g.ID, li.Language, li.Location)
		if err != nil {
			return fmt.Errorf("inserting geolocation localized info: %w", err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp applies all pending migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements photo.Database interface
var _ photo.Database = (*SQLiteDatabase)(nil)
