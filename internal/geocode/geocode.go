// Package geocode resolves free-text location descriptions to coordinates.
// Resolution is best-effort: the static gazetteer is consulted first, then
// the Google Geocoding API when a key is configured, then a fixed island
// center when the text mentions the region at all.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/gazetteer"
)

// Result sources.
const (
	SourceLandmark = "landmark"
	SourceGoogle   = "google"
	SourceFallback = "fallback"
)

// Fallback coordinates: central Hirara, used when the query mentions the
// island but nothing more specific resolves.
const (
	fallbackLat     = 24.8047
	fallbackLng     = 125.2814
	fallbackAddress = "沖縄県宮古島市"
)

const defaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Result is a resolved location.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Source    string  `json:"source"`
}

// Geocoder resolves location text. The zero value is not usable; construct
// with New.
type Geocoder struct {
	apiKey   string
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithEndpoint overrides the Google Geocoding API endpoint (used in tests).
func WithEndpoint(endpoint string) Option {
	return func(g *Geocoder) { g.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client used for external calls.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// New creates a Geocoder. An empty apiKey disables the external lookup
// step entirely. timeout bounds each external call; it is the one
// unbounded dependency of a search request.
func New(apiKey string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Geocoder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Geocoder{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{},
		timeout:  timeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves location text to coordinates. Returns
// apperr.ErrNotFound when no step resolves; external failures are logged
// and never fail the call on their own.
func (g *Geocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	if lm, ok := gazetteer.FindByName(location); ok {
		return &Result{
			Latitude:  lm.Latitude,
			Longitude: lm.Longitude,
			Address:   lm.Address,
			Source:    SourceLandmark,
		}, nil
	}

	if g.apiKey != "" {
		res, err := g.geocodeExternal(ctx, location)
		if err != nil {
			g.logger.Warn("external geocoding failed",
				slog.String("location", location),
				slog.String("error", err.Error()))
		} else if res != nil {
			return res, nil
		}
	}

	lower := strings.ToLower(location)
	if strings.Contains(lower, "宮古") || strings.Contains(lower, "miyako") {
		return &Result{
			Latitude:  fallbackLat,
			Longitude: fallbackLng,
			Address:   fallbackAddress,
			Source:    SourceFallback,
		}, nil
	}

	return nil, apperr.ErrNotFound
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// geocodeExternal performs a single island-scoped lookup against the
// Google Geocoding API. A (nil, nil) return means the service answered
// but found nothing.
func (g *Geocoder) geocodeExternal(ctx context.Context, location string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("address", location+" 宮古島")
	params.Set("key", g.apiKey)
	params.Set("language", "ja")
	params.Set("region", "jp")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return nil, nil
	}

	first := body.Results[0]
	return &Result{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
		Address:   first.FormattedAddress,
		Source:    SourceGoogle,
	}, nil
}
