package model

import "time"

// Photo represents one media file's extracted state.
// The Md5Sum is the content fingerprint used for deduplication: two files
// with identical bytes share one catalog row regardless of path.
type Photo struct {
	Path           string // Absolute path on host
	Label          string // Extracted label; empty means unlabeled
	TakenDate      *time.Time
	ModifiedDate   *time.Time
	Latitude       *float64
	Longitude      *float64
	AltitudeMeters *float64
	Md5Sum         string
	LocalizedInfo  []PhotoLocalizedInfo
	Err            error // Per-file extraction failure; never aborts a batch
}

// HasGPS reports whether both latitude and longitude are present.
func (p *Photo) HasGPS() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// HasErrors reports whether the photo failed metadata extraction.
func (p *Photo) HasErrors() bool {
	return p.Err != nil
}

// LocalizedFor returns the resolved place name for the given language,
// or "" if none is cached on this photo.
func (p *Photo) LocalizedFor(language string) string {
	for _, li := range p.LocalizedInfo {
		if li.Language == language {
			return li.Location
		}
	}
	return ""
}

// PhotoLocalizedInfo is a resolved place name for a photo in one language,
// denormalized onto the photo row for fast display.
type PhotoLocalizedInfo struct {
	Md5Sum   string
	Language string
	Location string
}

// Geolocation is the persisted resolution result for a coordinate pair.
// At most one row exists per distinct (latitude, longitude).
// A non-empty Error records a service-reported (permanent) failure;
// transient network failures are never persisted.
type Geolocation struct {
	ID            string // UUID
	Latitude      float64
	Longitude     float64
	Error         string
	LocalizedInfo []GeolocationLocalizedInfo
}

// LocalizedFor returns the cached place name for the given language,
// or "" if this coordinate has not been resolved in that language.
func (g *Geolocation) LocalizedFor(language string) string {
	for _, li := range g.LocalizedInfo {
		if li.Language == language {
			return li.Location
		}
	}
	return ""
}

// GeolocationLocalizedInfo is one (language, place name) pair on a
// geolocation entry.
type GeolocationLocalizedInfo struct {
	GeolocationID string
	Language      string
	Location      string
}

// RenamingResult summarizes one bulk rename operation. It is ephemeral:
// created per invocation and never persisted.
type RenamingResult struct {
	TotalFiles   int
	FilesRenamed int
	Errors       []string
}
