package meta

import (
	"context"
	"fmt"
	"strings"
	"time"

	exiftool "github.com/barasher/go-exiftool"

	"photodex/internal/model"
	"photodex/internal/photo"
)

// ExiftoolExtractor extracts metadata through an external exiftool
// process. It covers formats the native backend cannot read, notably
// QuickTime containers (mp4, mov) and RAW files.
type ExiftoolExtractor struct {
	et *exiftool.Exiftool
}

// NewExiftoolExtractor starts a long-lived exiftool process. The caller
// must Close the extractor when done.
func NewExiftoolExtractor() (*ExiftoolExtractor, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("could not initialize exiftool: %w", err)
	}
	return &ExiftoolExtractor{et: et}, nil
}

// Close terminates the exiftool process.
func (e *ExiftoolExtractor) Close() error {
	return e.et.Close()
}

// ExtractPhoto parses one file into a normalized Photo.
func (e *ExiftoolExtractor) ExtractPhoto(ctx context.Context, path string) (*model.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metas := e.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	fm := metas[0]
	if fm.Err != nil {
		return nil, fmt.Errorf("reading metadata: %w", fm.Err)
	}

	p := &model.Photo{Path: path}
	e.addLabels(fm, p)
	e.addDates(fm, p)
	e.addGPS(fm, p)
	return p, nil
}

// addLabels reads descriptive fields in fixed precedence: image
// description and XP tags, then the IPTC caption, then the container
// description. Distinct non-blank values are joined newline-separated.
func (e *ExiftoolExtractor) addLabels(fm exiftool.FileMetadata, p *model.Photo) {
	var labels []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		for _, existing := range labels {
			if existing == v {
				return
			}
		}
		labels = append(labels, v)
	}

	for _, key := range []string{
		"ImageDescription",
		"XPSubject",
		"XPTitle",
		"XPComment",
		"Caption-Abstract",
		"Description",
	} {
		if v, err := fm.GetString(key); err == nil {
			add(v)
		}
	}

	if len(labels) > 0 {
		p.Label = strings.Join(labels, "\n")
	}
}

// addDates reads the capture date with precedence DateTimeOriginal,
// CreateDate, CreationDate, ModifyDate, and the modification date from
// ModifyDate. Malformed values are ignored.
func (e *ExiftoolExtractor) addDates(fm exiftool.FileMetadata, p *model.Photo) {
	for _, key := range []string{"DateTimeOriginal", "CreateDate", "CreationDate", "ModifyDate"} {
		if t, ok := e.dateField(fm, key); ok {
			p.TakenDate = &t
			break
		}
	}
	if t, ok := e.dateField(fm, "ModifyDate"); ok {
		p.ModifiedDate = &t
	}
}

// addGPS parses the degrees-minutes-seconds coordinate strings and the
// altitude string exiftool emits.
func (e *ExiftoolExtractor) addGPS(fm exiftool.FileMetadata, p *model.Photo) {
	if v, err := fm.GetString("GPSLatitude"); err == nil {
		if lat, err := ParseDMS(v); err == nil {
			p.Latitude = &lat
		}
	}
	if v, err := fm.GetString("GPSLongitude"); err == nil {
		if lon, err := ParseDMS(v); err == nil {
			p.Longitude = &lon
		}
	}
	if v, err := fm.GetString("GPSAltitude"); err == nil {
		if alt, err := ParseAltitude(v); err == nil {
			p.AltitudeMeters = &alt
		}
	}
}

func (e *ExiftoolExtractor) dateField(fm exiftool.FileMetadata, key string) (time.Time, bool) {
	v, err := fm.GetString(key)
	if err != nil {
		return time.Time{}, false
	}
	// exiftool may append a timezone offset to QuickTime dates.
	for _, layout := range []string{exifDateTimeFormat, "2006:01:02 15:04:05-07:00", "2006:01:02 15:04:05Z07:00"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Compile-time check that ExiftoolExtractor implements photo.MetadataExtractor
var _ photo.MetadataExtractor = (*ExiftoolExtractor)(nil)
