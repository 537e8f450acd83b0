package photo

import "photodex/internal/model"

// Database provides an interface for the photo catalog and the geolocation
// cache. Writes that touch an entry plus its localized rows must be atomic:
// a partially written entry must never be observable.
type Database interface {
	// Photo catalog operations

	// GetPhotoByMd5 returns the photo with the given content hash,
	// or nil if the hash has never been indexed.
	GetPhotoByMd5(md5Sum string) (*model.Photo, error)

	// GetPhotosByMd5List returns all stored photos whose hash appears in
	// the given list. Hashes with no row are silently absent from the result.
	GetPhotosByMd5List(md5Sums []string) ([]*model.Photo, error)

	// GetPhotosByCoordinates returns all photos taken at exactly the given
	// coordinate pair, localized rows included.
	GetPhotosByCoordinates(latitude, longitude float64) ([]*model.Photo, error)

	// AddPhoto inserts a new catalog row together with its localized rows.
	// Fails if a row with the same hash already exists.
	AddPhoto(p *model.Photo) error

	// EditPhoto replaces the catalog row and its localized rows.
	// Fails if no row with the photo's hash exists.
	EditPhoto(p *model.Photo) error

	// DeletePhoto removes a catalog row; localized rows cascade.
	DeletePhoto(md5Sum string) error

	// Geolocation cache operations

	// GetGeolocationByCoordinates returns the entry for an exact coordinate
	// pair, or nil if the coordinate has never been resolved.
	GetGeolocationByCoordinates(latitude, longitude float64) (*model.Geolocation, error)

	// AddGeolocation inserts a new entry together with its localized rows.
	AddGeolocation(g *model.Geolocation) error

	// EditGeolocation replaces an entry and its localized rows.
	// Fails if no entry with the geolocation's ID exists.
	EditGeolocation(g *model.Geolocation) error

	// DeleteGeolocation removes an entry; localized rows cascade.
	DeleteGeolocation(id string) error

	// CheckMigrations verifies the schema is up-to-date.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
