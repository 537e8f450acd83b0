package geocode_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"photodex/internal/geocode"
	"photodex/internal/photo"
)

func newTestClient(handler http.HandlerFunc) (*geocode.NominatimClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := geocode.NewNominatimClient(
		geocode.WithBaseURL(srv.URL),
		geocode.WithRateLimit(1000), // don't slow tests down
	)
	return client, srv
}

func TestNominatimClient_ReverseGeocode(t *testing.T) {
	t.Run("returns the display name", func(t *testing.T) {
		var gotQuery map[string]string
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"lat":             r.URL.Query().Get("lat"),
				"lon":             r.URL.Query().Get("lon"),
				"accept-language": r.URL.Query().Get("accept-language"),
				"format":          r.URL.Query().Get("format"),
				"user-agent":      r.Header.Get("User-Agent"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"display_name": "Haro, La Rioja, Spain"}`))
		})
		defer srv.Close()

		name, err := client.ReverseGeocode(context.Background(), 42.5, -2.5, "en")
		if err != nil {
			t.Fatalf("ReverseGeocode() error = %v", err)
		}
		if name != "Haro, La Rioja, Spain" {
			t.Errorf("ReverseGeocode() = %q", name)
		}

		if gotQuery["lat"] != "42.5" || gotQuery["lon"] != "-2.5" {
			t.Errorf("coordinates sent as lat=%q lon=%q", gotQuery["lat"], gotQuery["lon"])
		}
		if gotQuery["accept-language"] != "en" {
			t.Errorf("accept-language = %q", gotQuery["accept-language"])
		}
		if gotQuery["format"] != "json" {
			t.Errorf("format = %q", gotQuery["format"])
		}
		if gotQuery["user-agent"] == "" {
			t.Error("request sent without a User-Agent")
		}
	})

	t.Run("coordinates use invariant decimal formatting", func(t *testing.T) {
		var lat, lon string
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			lat = r.URL.Query().Get("lat")
			lon = r.URL.Query().Get("lon")
			w.Write([]byte(`{"display_name": "x"}`))
		})
		defer srv.Close()

		if _, err := client.ReverseGeocode(context.Background(), 42.5085, -2.000001, "en"); err != nil {
			t.Fatalf("ReverseGeocode() error = %v", err)
		}
		if lat != "42.5085" {
			t.Errorf("lat = %q, want 42.5085", lat)
		}
		if lon != "-2.000001" {
			t.Errorf("lon = %q", lon)
		}
	})

	t.Run("body error field becomes a service error", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "Unable to geocode"}`))
		})
		defer srv.Close()

		_, err := client.ReverseGeocode(context.Background(), 0, 0, "en")
		var svcErr *photo.GeocodeServiceError
		if !errors.As(err, &svcErr) {
			t.Fatalf("error = %v (%T), want *photo.GeocodeServiceError", err, err)
		}
		if svcErr.Message != "Unable to geocode" {
			t.Errorf("Message = %q", svcErr.Message)
		}
	})

	t.Run("non-2xx status is a plain error", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		defer srv.Close()

		_, err := client.ReverseGeocode(context.Background(), 42.5, -2.5, "en")
		if err == nil {
			t.Fatal("ReverseGeocode() expected error")
		}
		var svcErr *photo.GeocodeServiceError
		if errors.As(err, &svcErr) {
			t.Error("status failure must not be a cacheable service error")
		}
	})

	t.Run("malformed body is a plain error", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		})
		defer srv.Close()

		_, err := client.ReverseGeocode(context.Background(), 42.5, -2.5, "en")
		if err == nil {
			t.Fatal("ReverseGeocode() expected error")
		}
		var svcErr *photo.GeocodeServiceError
		if errors.As(err, &svcErr) {
			t.Error("decode failure must not be a cacheable service error")
		}
	})

	t.Run("cancelled context aborts before the request", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request reached the server despite cancellation")
		})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := client.ReverseGeocode(ctx, 42.5, -2.5, "en"); err == nil {
			t.Error("ReverseGeocode() expected error")
		}
	})
}
