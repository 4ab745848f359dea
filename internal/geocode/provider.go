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
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Provider resolves a free-text address to a coordinate. Implementations
// return ErrAddressNotFound for unresolvable addresses and ErrRateLimited
// when throttled; any other error is treated as transient infrastructure
// failure.
type Provider interface {
	Geocode(ctx context.Context, address string) (Coordinate, error)
}

// HTTPProvider talks to a Nominatim-style JSON geocoding endpoint. A
// client-side rate limiter keeps bursts of cache misses inside the
// provider's published request budget.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

type httpResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewHTTPProvider builds a provider for the given endpoint. requestsPerSec
// caps outbound calls; public Nominatim allows 1.
func NewHTTPProvider(endpoint, apiKey string, requestsPerSec float64) *HTTPProvider {
	if requestsPerSec <= 0 {
		requestsPerSec = 1
	}
	return &HTTPProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

func (p *HTTPProvider) Geocode(ctx context.Context, address string) (Coordinate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Coordinate{}, err
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if p.apiKey != "" {
		query.Set("key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", "seedkit-geocoder")

	resp, err := p.client.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Coordinate{}, ErrRateLimited
	case resp.StatusCode >= 500:
		return Coordinate{}, fmt.Errorf("geocoding provider returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return Coordinate{}, fmt.Errorf("unexpected geocoding response %s", resp.Status)
	}

	var results []httpResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return Coordinate{}, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude %q in geocoding response", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude %q in geocoding response", results[0].Lon)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}
