package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/medatlas/geoenrich/internal/models"
)

// GeoCheckBaseURL -- GeoCheck geocoder endpoint, a thin proxy over Photon.
const GeoCheckBaseURL = "https://www.ideeslibres.org/GeoCheck/geocoder.php"

// GeoCheckProvider implements the Provider interface using the GeoCheck
// service. Free, keyless, no documented rate limit.
type GeoCheckProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the GeoCheck endpoint
	log     *slog.Logger // Logger for logging operations
}

// geoCheckResponse is the flat object GeoCheck answers with. The fields are
// pointers so an answer without coordinates is distinguishable from zero
// coordinates.
type geoCheckResponse struct {
	FirstLat *float64 `json:"firstlat"`
	FirstLng *float64 `json:"firstlng"`
}

// NewGeoCheckProvider creates a new GeoCheck geocoding provider.
func NewGeoCheckProvider(log *slog.Logger) *GeoCheckProvider {
	const timeout = 10

	return &GeoCheckProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: GeoCheckBaseURL,
		log:     log,
	}
}

// NewGeoCheckProviderWithClient allows injecting a custom HTTP client.
func NewGeoCheckProviderWithClient(client HTTPClient, log *slog.Logger) *GeoCheckProvider {
	return &GeoCheckProvider{
		client:  client,
		baseURL: GeoCheckBaseURL,
		log:     log,
	}
}

// Name identifies the provider in logs, metrics and quota tracking.
func (gp *GeoCheckProvider) Name() string { return "geocheck" }

// Geocode converts an address to geographic coordinates through GeoCheck's
// Photon backend.
func (gp *GeoCheckProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using GeoCheck", "address", address)

	reqURL, err := url.Parse(gp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("geocoder", "photon")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := gp.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("execute geocoding request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if retryableStatus(resp.StatusCode) {
			return nil, &NetworkError{Err: fmt.Errorf("geocheck returned status %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("%w: geocheck returned status %d", ErrNoResult, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	var result geoCheckResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode geocheck body: %v", ErrMalformedResponse, err)
	}

	if result.FirstLat == nil || result.FirstLng == nil {
		return nil, fmt.Errorf("%w: geocheck found nothing", ErrNoResult)
	}

	gp.log.DebugContext(ctx, "GeoCheck found result", "address", address, "lat", *result.FirstLat, "lon", *result.FirstLng)

	return &models.Coordinates{
		Latitude:  *result.FirstLat,
		Longitude: *result.FirstLng,
	}, nil
}
