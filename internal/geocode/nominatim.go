// Package geocode implements photo.Geocoder against the OpenStreetMap
// Nominatim reverse-geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"photodex/internal/photo"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// userAgent identifies this tool to Nominatim, per its usage policy.
const userAgent = "photodex"

// reverseResponse models the subset of Nominatim's reverse response we
// care about: the display name, or a structured error field.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NominatimClient performs reverse geocoding with rate limiting. Nominatim
// allows at most one request per second for anonymous clients.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a NominatimClient.
type Option func(*NominatimClient)

// WithBaseURL points the client at a different Nominatim endpoint,
// e.g. a self-hosted instance or a test server.
func WithBaseURL(u string) Option {
	return func(c *NominatimClient) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *NominatimClient) { c.httpClient = hc }
}

// WithRateLimit overrides the requests-per-second bound.
func WithRateLimit(rps float64) Option {
	return func(c *NominatimClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewNominatimClient creates a client with the public Nominatim endpoint,
// a 10 second timeout and a 1 request/second limit.
func NewNominatimClient(opts ...Option) *NominatimClient {
	c := &NominatimClient{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReverseGeocode resolves a coordinate pair to a display name in the given
// language.
//
// Coordinates are encoded with an invariant decimal format, never the host
// locale. Transport failures and non-2xx statuses are returned as plain
// (transient) errors; a 2xx response whose body carries a non-empty error
// field is returned as a *photo.GeocodeServiceError, which callers may
// cache as permanent.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, latitude, longitude float64, language string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("accept-language", language)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding reverse geocode response: %w", err)
	}
	if result.Error != "" {
		return "", &photo.GeocodeServiceError{Message: result.Error}
	}
	return result.DisplayName, nil
}

// Compile-time check that NominatimClient implements photo.Geocoder
var _ photo.Geocoder = (*NominatimClient)(nil)
