package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medatlas/geoenrich/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient is the slice of the Google Maps client the provider
// needs, kept as an interface for mocking.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given client
// and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Name identifies the provider in logs, metrics and quota tracking.
func (gp *GoogleProvider) Name() string { return "google" }

// Geocode takes a context and an address string as input, and returns the
// geographical coordinates of the provided address using the Google Maps
// Geocoding API. An empty result set means the address is unknown; client
// errors are classified into the shared failure taxonomy.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	if len(geocodeResponse) == 0 {
		return nil, fmt.Errorf("%w: google maps found nothing", ErrNoResult)
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}

// classifyGoogleError maps maps-client failures onto the taxonomy. The
// client surfaces API statuses as error text, so the quota statuses are
// matched by name; everything else is treated as transport trouble.
func classifyGoogleError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "OVER_DAILY_LIMIT") {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
	}
	if strings.Contains(msg, "REQUEST_DENIED") || strings.Contains(msg, "INVALID_REQUEST") {
		return fmt.Errorf("%w: %s", ErrNoResult, msg)
	}

	return &NetworkError{Err: fmt.Errorf("google maps request: %w", err)}
}
