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

// YandexBaseURL -- Yandex Geocoder API base URL.
const YandexBaseURL = "https://geocode-maps.yandex.ru/1.x/"

// YandexProvider implements geocoding using the Yandex Geocoder API.
// The API is metered per key, so it is usually paired with a Quota in the
// resolver.
type YandexProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Yandex API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Yandex API response (simplified for the geocoding use-case). Pos holds
// "longitude latitude" as two space-separated floats.
type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// NewYandexProvider creates a new Yandex geocoding provider.
func NewYandexProvider(apiKey string, rateLimit int, log *slog.Logger) *YandexProvider {
	const timeout = 10

	return &YandexProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: YandexBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewYandexProviderWithClient allows injecting a custom HTTP client.
func NewYandexProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *YandexProvider {
	return &YandexProvider{
		client:  client,
		baseURL: YandexBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Name identifies the provider in logs, metrics and quota tracking.
func (yp *YandexProvider) Name() string { return "yandex" }

// Geocode converts an address into geographic coordinates using the Yandex
// Geocoder API.
func (yp *YandexProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := yp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	yp.log.DebugContext(ctx, "Geocoding using Yandex", "address", address)

	reqURL, err := url.Parse(yp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("geocode", address)
	query.Set("format", "json")
	query.Set("apikey", yp.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := yp.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("execute geocoding request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// continue
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		// Yandex rejects the key with 403 once the daily limit is spent.
		return nil, fmt.Errorf("%w: yandex returned status %d", ErrQuotaExceeded, resp.StatusCode)
	case retryableStatus(resp.StatusCode):
		return nil, &NetworkError{Err: fmt.Errorf("yandex returned status %d", resp.StatusCode)}
	default:
		body, _ := io.ReadAll(resp.Body)
		yp.log.ErrorContext(ctx, "Yandex API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: yandex returned status %d", ErrNoResult, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	var result yandexResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode yandex body: %v", ErrMalformedResponse, err)
	}

	members := result.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: yandex found nothing", ErrNoResult)
	}

	// pos is "longitude latitude".
	parts := strings.Fields(members[0].GeoObject.Point.Pos)
	const posParts = 2
	if len(parts) != posParts {
		return nil, fmt.Errorf("%w: unexpected pos %q", ErrMalformedResponse, members[0].GeoObject.Point.Pos)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude %q", ErrMalformedResponse, parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude %q", ErrMalformedResponse, parts[1])
	}

	yp.log.DebugContext(ctx, "Yandex found result", "address", address, "lat", lat, "lon", lon)

	return &models.Coordinates{
		Latitude:  lat,
		Longitude: lon,
	}, nil
}
