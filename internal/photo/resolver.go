package photo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"photodex/internal/model"
)

// ResolutionState is the lifecycle of one photo+language resolution.
type ResolutionState int

const (
	StateUnresolved ResolutionState = iota
	StateLoading
	StateResolved
	StateErrored
)

func (s ResolutionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateLoading:
		return "loading"
	case StateResolved:
		return "resolved"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("ResolutionState(%d)", int(s))
	}
}

// Resolution is the outcome of resolving one photo's coordinates in one
// language. PlaceName and State are set together, so a reader never
// observes a resolved state with stale text.
type Resolution struct {
	State     ResolutionState
	PlaceName string
	Message   string // human-readable failure description when Errored
	FromCache bool   // true when no external call was made
}

// Resolver orchestrates on-demand resolution of photo GPS coordinates into
// place names, consulting the geolocation store before the external
// geocoder and writing results back.
//
// Resolutions are idempotent per (content hash, language): once a photo
// reaches Resolved, or Errored through a service-reported failure, the
// same request never re-executes. Transient failures leave the pair
// retryable.
type Resolver struct {
	database Database
	geocoder Geocoder
	logger   Logger
	idgen    IDGenerator

	mu   sync.Mutex
	memo map[string]*Resolution
}

// NewResolver creates a Resolver.
func NewResolver(database Database, geocoder Geocoder, logger Logger, idgen IDGenerator) *Resolver {
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Resolver{
		database: database,
		geocoder: geocoder,
		logger:   logger,
		idgen:    idgen,
		memo:     make(map[string]*Resolution),
	}
}

// State returns the current resolution state for a photo+language pair
// without triggering any work.
func (r *Resolver) State(p *model.Photo, language string) ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.memo[memoKey(p, language)]; ok {
		return res.State
	}
	return StateUnresolved
}

// Resolve turns the photo's coordinates into a place name for the given
// language. A photo without GPS data resolves immediately to an empty
// place name. Store hits avoid the external geocoder entirely.
//
// Service-reported geocoding failures are persisted on the coordinate's
// store entry and are terminal; transport failures are not persisted and
// a later call retries.
func (r *Resolver) Resolve(ctx context.Context, p *model.Photo, language string) (*Resolution, error) {
	if p == nil {
		return nil, errors.New("photo must not be nil")
	}

	key := memoKey(p, language)
	r.mu.Lock()
	if res, ok := r.memo[key]; ok && (res.State == StateResolved || res.State == StateErrored) {
		r.mu.Unlock()
		return res, nil
	}
	r.memo[key] = &Resolution{State: StateLoading}
	r.mu.Unlock()

	res, retryable := r.resolve(ctx, p, language)

	r.mu.Lock()
	if retryable {
		delete(r.memo, key)
	} else {
		r.memo[key] = res
	}
	r.mu.Unlock()
	return res, nil
}

// resolve performs the actual lookup. retryable is true only for transient
// failures, which must not pin the terminal state.
func (r *Resolver) resolve(ctx context.Context, p *model.Photo, language string) (res *Resolution, retryable bool) {
	if !p.HasGPS() {
		r.logger.Debug("photo has no GPS information", "path", p.Path)
		return &Resolution{State: StateResolved, FromCache: true}, false
	}

	lat, lon := *p.Latitude, *p.Longitude

	entry, err := r.database.GetGeolocationByCoordinates(lat, lon)
	if err != nil {
		r.logger.Error("geolocation store lookup failed", "error", err)
		entry = nil // degrade to a network attempt
	}

	if entry != nil {
		if name := entry.LocalizedFor(language); name != "" {
			r.logger.Debug("geolocation cache hit", "lat", lat, "lon", lon, "language", language)
			r.attachToPhoto(p, language, name)
			return &Resolution{State: StateResolved, PlaceName: name, FromCache: true}, false
		}
		// A cached permanent error for another language does not preclude
		// this language succeeding; fall through to the network call.
	}

	name, err := r.geocoder.ReverseGeocode(ctx, lat, lon, language)
	if err != nil {
		var svcErr *GeocodeServiceError
		if errors.As(err, &svcErr) {
			r.persistError(entry, lat, lon, svcErr.Message)
			return &Resolution{State: StateErrored, Message: svcErr.Message}, false
		}
		r.logger.Warn("transient geocoding failure", "lat", lat, "lon", lon, "error", err)
		return &Resolution{State: StateErrored, Message: err.Error()}, true
	}

	r.persistName(entry, lat, lon, language, name)
	r.attachToPhoto(p, language, name)
	return &Resolution{State: StateResolved, PlaceName: name}, false
}

// persistName writes a successful resolution to the store: a new entry for
// an unseen coordinate, or an appended localized row on an existing one.
// Store failures are logged, not surfaced; the caller still gets the name.
func (r *Resolver) persistName(entry *model.Geolocation, lat, lon float64, language, name string) {
	var err error
	if entry == nil {
		err = r.database.AddGeolocation(&model.Geolocation{
			ID:        r.idgen.New(),
			Latitude:  lat,
			Longitude: lon,
			LocalizedInfo: []model.GeolocationLocalizedInfo{
				{Language: language, Location: name},
			},
		})
	} else {
		entry.LocalizedInfo = append(entry.LocalizedInfo, model.GeolocationLocalizedInfo{
			GeolocationID: entry.ID,
			Language:      language,
			Location:      name,
		})
		err = r.database.EditGeolocation(entry)
	}
	if err != nil {
		r.logger.Error("persisting geolocation failed", "lat", lat, "lon", lon, "error", err)
	}

	r.denormalizeOntoPhotos(lat, lon, language, name)
}

// persistError caches a service-reported failure on the coordinate's entry
// so the external geocoder is not queried again for it.
func (r *Resolver) persistError(entry *model.Geolocation, lat, lon float64, message string) {
	var err error
	if entry == nil {
		err = r.database.AddGeolocation(&model.Geolocation{
			ID:        r.idgen.New(),
			Latitude:  lat,
			Longitude: lon,
			Error:     message,
		})
	} else {
		entry.Error = message
		err = r.database.EditGeolocation(entry)
	}
	if err != nil {
		r.logger.Error("persisting geolocation error failed", "lat", lat, "lon", lon, "error", err)
	}
}

// denormalizeOntoPhotos copies a resolved place name onto every catalog
// photo at the same coordinates, for fast display without a join.
func (r *Resolver) denormalizeOntoPhotos(lat, lon float64, language, name string) {
	photos, err := r.database.GetPhotosByCoordinates(lat, lon)
	if err != nil {
		r.logger.Error("fetching photos by coordinates failed", "error", err)
		return
	}
	for _, stored := range photos {
		if stored.LocalizedFor(language) != "" {
			continue
		}
		stored.LocalizedInfo = append(stored.LocalizedInfo, model.PhotoLocalizedInfo{
			Md5Sum:   stored.Md5Sum,
			Language: language,
			Location: name,
		})
		if err := r.database.EditPhoto(stored); err != nil {
			r.logger.Error("updating photo localized info failed", "md5", stored.Md5Sum, "error", err)
		}
	}
}

// attachToPhoto records the place name on the in-memory photo so display
// code reads it without another store round-trip.
func (r *Resolver) attachToPhoto(p *model.Photo, language, name string) {
	if name == "" || p.LocalizedFor(language) != "" {
		return
	}
	p.LocalizedInfo = append(p.LocalizedInfo, model.PhotoLocalizedInfo{
		Md5Sum:   p.Md5Sum,
		Language: language,
		Location: name,
	})
}

func memoKey(p *model.Photo, language string) string {
	if p.Md5Sum != "" {
		return p.Md5Sum + "|" + language
	}
	return p.Path + "|" + language
}
