package photo

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"photodex/internal/model"
)

// Hasher computes a stable content fingerprint for a file.
// Identical bytes always produce identical fingerprints.
type Hasher interface {
	HashFile(ctx context.Context, path string) (string, error)
}

// MetadataExtractor parses a single file's embedded metadata into a
// normalized Photo. Missing label, date or GPS fields are valid empty
// states; only unreadable metadata is an error.
type MetadataExtractor interface {
	ExtractPhoto(ctx context.Context, path string) (*model.Photo, error)
}

// Geocoder resolves a coordinate pair into a human-readable place name
// for the given display language.
//
// A *GeocodeServiceError return means the remote service understood the
// request and declined it; that failure is cacheable. Any other error is
// transient (network, timeout) and must not be persisted.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64, language string) (string, error)
}

// GeocodeServiceError is a structured error payload returned by the
// geocoding service itself, as opposed to a transport failure.
type GeocodeServiceError struct {
	Message string
}

func (e *GeocodeServiceError) Error() string {
	return fmt.Sprintf("geocoding service error: %s", e.Message)
}

// PhotoReader renders image content for display. The index only uses it to
// attach redraw data to records; tree construction never blocks on it.
type PhotoReader interface {
	// GetGenericImageSrc returns placeholder image data.
	GetGenericImageSrc() string

	// GetImgSrc returns encoded image data for the file, or "" for
	// unsupported or missing files.
	GetImgSrc(ctx context.Context, path string) (string, error)
}

// FilesystemManager abstracts the filesystem operations the pipeline needs,
// so indexing and renaming are testable against a fake.
type FilesystemManager interface {
	// FindDirectories returns root itself plus every subdirectory beneath
	// it, as absolute paths, in a single bulk traversal.
	FindDirectories(root string) ([]string, error)

	// ListFiles returns the absolute paths of regular files directly in
	// dir (non-recursive), in directory listing order.
	ListFiles(dir string) ([]string, error)

	// Stat returns file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// Exists reports whether a path exists.
	Exists(path string) bool

	// Rename moves a file. Source and destination are absolute paths.
	Rename(oldPath, newPath string) error

	// SetTimes applies access and modification times to a file.
	SetTimes(path string, atime, mtime time.Time) error
}

// LoadPhotoError wraps the underlying cause of a metadata read failure
// together with the offending file path.
type LoadPhotoError struct {
	Path string
	Err  error
}

func (e *LoadPhotoError) Error() string {
	return fmt.Sprintf("loading photo %s: %v", e.Path, e.Err)
}

func (e *LoadPhotoError) Unwrap() error { return e.Err }
