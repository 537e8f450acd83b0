package testutil

import (
	"context"
	"fmt"
	"sync"

	"photodex/internal/photo"
)

// GeocodeResponse is one scripted answer the fake geocoder can return.
type GeocodeResponse struct {
	PlaceName string
	Err       error
}

// FakeGeocoder returns scripted responses keyed by coordinates and language,
// and counts how many times it was called. Safe for concurrent use.
type FakeGeocoder struct {
	mu        sync.Mutex
	responses map[string]GeocodeResponse
	calls     int

	// DefaultErr is returned for coordinates with no scripted response.
	DefaultErr error
}

// NewFakeGeocoder creates a fake geocoder with no scripted responses.
func NewFakeGeocoder() *FakeGeocoder {
	return &FakeGeocoder{
		responses: make(map[string]GeocodeResponse),
	}
}

// Script registers a response for the given coordinates and language.
func (g *FakeGeocoder) Script(latitude, longitude float64, language, placeName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[geocodeKey(latitude, longitude, language)] = GeocodeResponse{PlaceName: placeName}
}

// ScriptError registers an error response for the given coordinates and language.
func (g *FakeGeocoder) ScriptError(latitude, longitude float64, language string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[geocodeKey(latitude, longitude, language)] = GeocodeResponse{Err: err}
}

// Calls returns how many times ReverseGeocode was invoked.
func (g *FakeGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *FakeGeocoder) ReverseGeocode(ctx context.Context, latitude, longitude float64, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	resp, ok := g.responses[geocodeKey(latitude, longitude, language)]
	if !ok {
		if g.DefaultErr != nil {
			return "", g.DefaultErr
		}
		return "", fmt.Errorf("no scripted response for %v,%v (%s)", latitude, longitude, language)
	}
	return resp.PlaceName, resp.Err
}

func geocodeKey(latitude, longitude float64, language string) string {
	return fmt.Sprintf("%v|%v|%s", latitude, longitude, language)
}

// Compile-time check that FakeGeocoder implements the interface
var _ photo.Geocoder = (*FakeGeocoder)(nil)
