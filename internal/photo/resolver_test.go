package photo_test

import (
	"context"
	"errors"
	"testing"

	"photodex/internal/model"
	"photodex/internal/photo"
	"photodex/internal/testutil"
)

func gpsPhoto(md5 string, lat, lon float64) *model.Photo {
	return &model.Photo{
		Path:      "/photos/" + md5 + ".jpg",
		Md5Sum:    md5,
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func newTestResolver(t *testing.T) (*photo.Resolver, photo.Database, *testutil.FakeGeocoder) {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	geocoder := testutil.NewFakeGeocoder()
	r := photo.NewResolver(db, geocoder, photo.NopLogger{}, testutil.NewStubIDGenerator())
	return r, db, geocoder
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("photo without GPS resolves immediately", func(t *testing.T) {
		r, _, geocoder := newTestResolver(t)

		p := &model.Photo{Path: "/photos/indoor.jpg", Md5Sum: "abc"}
		res, err := r.Resolve(context.Background(), p, "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved {
			t.Errorf("State = %v, want resolved", res.State)
		}
		if res.PlaceName != "" {
			t.Errorf("PlaceName = %q, want empty", res.PlaceName)
		}
		if !res.FromCache {
			t.Error("no-GPS resolution should not count as an external call")
		}
		if geocoder.Calls() != 0 {
			t.Errorf("geocoder called %d times, want 0", geocoder.Calls())
		}
	})

	t.Run("nil photo errors", func(t *testing.T) {
		r, _, _ := newTestResolver(t)
		if _, err := r.Resolve(context.Background(), nil, "en"); err == nil {
			t.Error("Resolve(nil) expected error")
		}
	})

	t.Run("successful resolution persists and attaches the name", func(t *testing.T) {
		r, db, geocoder := newTestResolver(t)
		geocoder.Script(42.5, -2.5, "en", "Haro, La Rioja, Spain")

		p := gpsPhoto("cat1", 42.5, -2.5)
		res, err := r.Resolve(context.Background(), p, "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved || res.PlaceName != "Haro, La Rioja, Spain" {
			t.Fatalf("Resolve() = %+v, want resolved Haro", res)
		}
		if res.FromCache {
			t.Error("first resolution claimed to come from the store")
		}

		if got := p.LocalizedFor("en"); got != "Haro, La Rioja, Spain" {
			t.Errorf("photo LocalizedFor(en) = %q", got)
		}

		entry, err := db.GetGeolocationByCoordinates(42.5, -2.5)
		if err != nil {
			t.Fatalf("GetGeolocationByCoordinates() error = %v", err)
		}
		if entry == nil {
			t.Fatal("resolution was not persisted to the store")
		}
		if got := entry.LocalizedFor("en"); got != "Haro, La Rioja, Spain" {
			t.Errorf("stored LocalizedFor(en) = %q", got)
		}
	})

	t.Run("repeat resolution is memoized", func(t *testing.T) {
		r, _, geocoder := newTestResolver(t)
		geocoder.Script(42.5, -2.5, "en", "Haro")

		p := gpsPhoto("cat1", 42.5, -2.5)
		if _, err := r.Resolve(context.Background(), p, "en"); err != nil {
			t.Fatalf("first Resolve() error = %v", err)
		}
		if _, err := r.Resolve(context.Background(), p, "en"); err != nil {
			t.Fatalf("second Resolve() error = %v", err)
		}
		if geocoder.Calls() != 1 {
			t.Errorf("geocoder called %d times, want 1", geocoder.Calls())
		}
		if got := r.State(p, "en"); got != photo.StateResolved {
			t.Errorf("State() = %v, want resolved", got)
		}
	})

	t.Run("store hit avoids the external geocoder", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		geocoder := testutil.NewFakeGeocoder()
		geocoder.Script(42.5, -2.5, "en", "Haro")

		first := photo.NewResolver(db, geocoder, photo.NopLogger{}, testutil.NewStubIDGenerator())
		if _, err := first.Resolve(context.Background(), gpsPhoto("cat1", 42.5, -2.5), "en"); err != nil {
			t.Fatalf("priming Resolve() error = %v", err)
		}

		// Fresh resolver, same store: no memo, but the store has the name.
		second := photo.NewResolver(db, geocoder, photo.NopLogger{}, testutil.NewStubIDGenerator())
		res, err := second.Resolve(context.Background(), gpsPhoto("dog1", 42.5, -2.5), "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved || res.PlaceName != "Haro" {
			t.Fatalf("Resolve() = %+v, want resolved Haro", res)
		}
		if !res.FromCache {
			t.Error("store hit not reported as cached")
		}
		if geocoder.Calls() != 1 {
			t.Errorf("geocoder called %d times, want 1", geocoder.Calls())
		}
	})

	t.Run("service-reported failure is terminal and persisted", func(t *testing.T) {
		r, db, geocoder := newTestResolver(t)
		geocoder.ScriptError(0.0, 0.0, "en", &photo.GeocodeServiceError{Message: "Unable to geocode"})

		p := gpsPhoto("sea1", 0.0, 0.0)
		res, err := r.Resolve(context.Background(), p, "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateErrored || res.Message != "Unable to geocode" {
			t.Fatalf("Resolve() = %+v, want errored", res)
		}

		entry, err := db.GetGeolocationByCoordinates(0.0, 0.0)
		if err != nil {
			t.Fatalf("GetGeolocationByCoordinates() error = %v", err)
		}
		if entry == nil || entry.Error != "Unable to geocode" {
			t.Fatalf("stored entry = %+v, want persisted error", entry)
		}

		// Terminal: no second network call.
		if _, err := r.Resolve(context.Background(), p, "en"); err != nil {
			t.Fatalf("second Resolve() error = %v", err)
		}
		if geocoder.Calls() != 1 {
			t.Errorf("geocoder called %d times, want 1", geocoder.Calls())
		}
	})

	t.Run("transient failure is retryable and not persisted", func(t *testing.T) {
		r, db, geocoder := newTestResolver(t)
		geocoder.ScriptError(42.5, -2.5, "en", errors.New("connection refused"))

		p := gpsPhoto("cat1", 42.5, -2.5)
		res, err := r.Resolve(context.Background(), p, "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateErrored {
			t.Fatalf("State = %v, want errored", res.State)
		}

		entry, err := db.GetGeolocationByCoordinates(42.5, -2.5)
		if err != nil {
			t.Fatalf("GetGeolocationByCoordinates() error = %v", err)
		}
		if entry != nil {
			t.Error("transient failure was persisted to the store")
		}
		if got := r.State(p, "en"); got != photo.StateUnresolved {
			t.Errorf("State() after transient failure = %v, want unresolved", got)
		}

		// The network recovers; the same request succeeds.
		geocoder.Script(42.5, -2.5, "en", "Haro")
		res, err = r.Resolve(context.Background(), p, "en")
		if err != nil {
			t.Fatalf("retry Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved || res.PlaceName != "Haro" {
			t.Errorf("retry Resolve() = %+v, want resolved Haro", res)
		}
		if geocoder.Calls() != 2 {
			t.Errorf("geocoder called %d times, want 2", geocoder.Calls())
		}
	})

	t.Run("cached error in one language does not block another language", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		geocoder := testutil.NewFakeGeocoder()
		geocoder.ScriptError(42.5, -2.5, "en", &photo.GeocodeServiceError{Message: "Unable to geocode"})
		geocoder.Script(42.5, -2.5, "es", "Haro, La Rioja")

		r := photo.NewResolver(db, geocoder, photo.NopLogger{}, testutil.NewStubIDGenerator())

		p := gpsPhoto("cat1", 42.5, -2.5)
		if res, _ := r.Resolve(context.Background(), p, "en"); res.State != photo.StateErrored {
			t.Fatalf("en resolution state = %v, want errored", res.State)
		}

		res, err := r.Resolve(context.Background(), p, "es")
		if err != nil {
			t.Fatalf("es Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved || res.PlaceName != "Haro, La Rioja" {
			t.Errorf("es Resolve() = %+v, want resolved", res)
		}
	})

	t.Run("resolution denormalizes onto catalog photos at the same spot", func(t *testing.T) {
		r, db, geocoder := newTestResolver(t)
		geocoder.Script(42.5, -2.5, "en", "Haro")

		lat, lon := 42.5, -2.5
		stored := &model.Photo{
			Path:      "/photos/old.jpg",
			Md5Sum:    "old1",
			Latitude:  &lat,
			Longitude: &lon,
		}
		if err := db.AddPhoto(stored); err != nil {
			t.Fatalf("AddPhoto() error = %v", err)
		}

		if _, err := r.Resolve(context.Background(), gpsPhoto("new1", 42.5, -2.5), "en"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		got, err := db.GetPhotoByMd5("old1")
		if err != nil {
			t.Fatalf("GetPhotoByMd5() error = %v", err)
		}
		if got == nil || got.LocalizedFor("en") != "Haro" {
			t.Errorf("stored photo LocalizedFor(en) = %q, want Haro", got.LocalizedFor("en"))
		}
	})
}
