package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medatlas/geoenrich/internal/models"
	"golang.org/x/time/rate"
)

// GeoXYZBaseURL -- geocode.xyz API base URL. The address goes into the
// request path.
const GeoXYZBaseURL = "https://geocode.xyz"

// GeoXYZProvider implements the Provider interface using geocode.xyz.
// The anonymous tier throttles aggressively around one request per second,
// so the provider carries its own limiter.
type GeoXYZProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the geocode.xyz API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter for the anonymous tier
}

// geoXYZResponse is the success-or-error shape geocode.xyz answers with.
// Coordinates arrive as strings; on failure an error object appears
// instead.
type geoXYZResponse struct {
	Latt  string `json:"latt"`
	Longt string `json:"longt"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewGeoXYZProvider creates a new geocode.xyz geocoding provider.
func NewGeoXYZProvider(rateLimit int, log *slog.Logger) *GeoXYZProvider {
	const timeout = 10

	return &GeoXYZProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: GeoXYZBaseURL,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewGeoXYZProviderWithClient allows injecting a custom HTTP client.
func NewGeoXYZProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *GeoXYZProvider {
	return &GeoXYZProvider{
		client:  client,
		baseURL: GeoXYZBaseURL,
		log:     log,
		limiter: limiter,
	}
}

// Name identifies the provider in logs, metrics and quota tracking.
func (gp *GeoXYZProvider) Name() string { return "geoxyz" }

// Geocode converts an address to geographic coordinates using geocode.xyz.
func (gp *GeoXYZProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := gp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	gp.log.DebugContext(ctx, "Geocoding using geocode.xyz", "address", address)

	reqURL, err := url.Parse(gp.baseURL + "/" + url.PathEscape(address))
	if err != nil {
		return nil, fmt.Errorf("parse request URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("json", "1")
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

	switch {
	case resp.StatusCode == http.StatusOK:
		// continue
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: geocode.xyz returned status %d", ErrQuotaExceeded, resp.StatusCode)
	case retryableStatus(resp.StatusCode):
		return nil, &NetworkError{Err: fmt.Errorf("geocode.xyz returned status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("%w: geocode.xyz returned status %d", ErrNoResult, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	var result geoXYZResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode geocode.xyz body: %v", ErrMalformedResponse, err)
	}

	if result.Error != nil {
		return nil, gp.classifyError(result.Error.Code, result.Error.Description)
	}

	if result.Latt == "" || result.Longt == "" {
		return nil, fmt.Errorf("%w: geocode.xyz found nothing", ErrNoResult)
	}

	lat, err := strconv.ParseFloat(result.Latt, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude %q", ErrMalformedResponse, result.Latt)
	}
	lon, err := strconv.ParseFloat(result.Longt, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude %q", ErrMalformedResponse, result.Longt)
	}

	gp.log.DebugContext(ctx, "geocode.xyz found result", "address", address, "lat", lat, "lon", lon)

	return &models.Coordinates{
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// classifyError maps geocode.xyz error objects onto the failure taxonomy.
// Code 006 is per-second throttling of the anonymous tier and worth a
// retry; 003 means the account is out of credits.
func (gp *GeoXYZProvider) classifyError(code, description string) error {
	switch {
	case code == "006" || strings.Contains(description, "Throttled"):
		return &NetworkError{Err: fmt.Errorf("geocode.xyz throttled: %s", description)}
	case code == "003":
		return fmt.Errorf("%w: geocode.xyz: %s", ErrQuotaExceeded, description)
	default:
		return fmt.Errorf("%w: geocode.xyz: %s", ErrNoResult, description)
	}
}
