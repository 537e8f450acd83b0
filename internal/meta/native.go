// Package meta extracts normalized photo metadata (label, dates, GPS)
// from media files. Two backends exist: a native one built on goexif and
// goheif, and one that shells out to exiftool for broader format support.
package meta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/adrium/goheif"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"photodex/internal/model"
	"photodex/internal/photo"
)

// exifDateTimeFormat is the timestamp layout used by EXIF date tags.
const exifDateTimeFormat = "2006:01:02 15:04:05"

// NativeExtractor reads metadata in-process: EXIF for JPEG and TIFF,
// EXIF-in-HEIF for HEIC. Video containers carry no readable tags in this
// backend and produce records with only a path; use the exiftool backend
// for QuickTime metadata.
type NativeExtractor struct{}

// NewNativeExtractor creates a NativeExtractor.
func NewNativeExtractor() *NativeExtractor { return &NativeExtractor{} }

// ExtractPhoto parses one file into a normalized Photo. Missing label,
// date or GPS fields are valid empty states.
func (e *NativeExtractor) ExtractPhoto(ctx context.Context, path string) (*model.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &model.Photo{Path: path}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp4", ".mov":
		// No in-process container parser; an empty record is valid.
		return p, nil
	}

	x, err := e.decodeExif(path, ext)
	if err != nil {
		return nil, err
	}

	e.addLabels(x, p)
	e.addDates(x, p)
	e.addGPS(x, p)
	return p, nil
}

// decodeExif opens the file and decodes its EXIF block. HEIC files carry
// EXIF inside the HEIF container and need extraction first.
func (e *NativeExtractor) decodeExif(path, ext string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if ext == ".heic" {
		raw, err := goheif.ExtractExif(f)
		if err != nil {
			return nil, fmt.Errorf("extracting EXIF from HEIF container: %w", err)
		}
		raw = bytes.TrimPrefix(raw, []byte("Exif\x00\x00"))
		x, err := exif.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decoding EXIF: %w", err)
		}
		return x, nil
	}

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding EXIF: %w", err)
	}
	return x, nil
}

// addLabels collects descriptive fields in fixed precedence and joins the
// distinct non-blank values, newline-separated, into the label.
func (e *NativeExtractor) addLabels(x *exif.Exif, p *model.Photo) {
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

	add(e.stringField(x, exif.ImageDescription))
	add(e.xpField(x, exif.XPSubject))
	add(e.xpField(x, exif.XPTitle))
	add(e.xpField(x, exif.XPComment))

	if len(labels) > 0 {
		p.Label = strings.Join(labels, "\n")
	}
}

// addDates reads the capture date with precedence DateTimeOriginal,
// DateTimeDigitized, DateTime, and the modification date from DateTime.
// Malformed date strings are ignored, not fatal.
func (e *NativeExtractor) addDates(x *exif.Exif, p *model.Photo) {
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if t, ok := e.dateField(x, field); ok {
			p.TakenDate = &t
			break
		}
	}
	if t, ok := e.dateField(x, exif.DateTime); ok {
		p.ModifiedDate = &t
	}
}

// addGPS converts the latitude/longitude rational triplets to decimal
// degrees (degrees + minutes/60 + seconds/3600) and reads the altitude
// with its sea-level reference.
func (e *NativeExtractor) addGPS(x *exif.Exif, p *model.Photo) {
	if lat, ok := e.coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef, "S"); ok {
		p.Latitude = &lat
	}
	if lon, ok := e.coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef, "W"); ok {
		p.Longitude = &lon
	}

	tag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return
	}
	altitude := float64(num) / float64(den)
	if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := ref.Int(0); err == nil && v == 1 {
			altitude = -altitude
		}
	}
	p.AltitudeMeters = &altitude
}

// coordinate reads one DMS rational triplet, applying the negative
// reference direction (S or W).
func (e *NativeExtractor) coordinate(x *exif.Exif, field, refField exif.FieldName, negativeRef string) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}

	var parts [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}
	value := parts[0] + parts[1]/60 + parts[2]/3600

	if ref, err := x.Get(refField); err == nil {
		if s, err := ref.StringVal(); err == nil && strings.TrimSpace(s) == negativeRef {
			value = -value
		}
	}
	return value, true
}

func (e *NativeExtractor) stringField(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

// xpField decodes a Windows XP* tag, which stores UTF-16LE bytes rather
// than ASCII.
func (e *NativeExtractor) xpField(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	return decodeUTF16LE(tag)
}

func decodeUTF16LE(tag *tiff.Tag) string {
	raw := tag.Val
	if len(raw) < 2 {
		return ""
	}
	codes := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		codes = append(codes, uint16(raw[i])|uint16(raw[i+1])<<8)
	}
	// Strip the trailing NUL terminator if present.
	for len(codes) > 0 && codes[len(codes)-1] == 0 {
		codes = codes[:len(codes)-1]
	}
	return string(utf16.Decode(codes))
}

// dateField parses an EXIF date tag, ignoring malformed values.
func (e *NativeExtractor) dateField(x *exif.Exif, field exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(exifDateTimeFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Compile-time check that NativeExtractor implements photo.MetadataExtractor
var _ photo.MetadataExtractor = (*NativeExtractor)(nil)
