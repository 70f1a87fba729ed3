package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeYandex represents the Yandex Geocoder API.
	ProviderTypeYandex ProviderType = "yandex"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeGeoCheck represents the GeoCheck Photon proxy.
	ProviderTypeGeoCheck ProviderType = "geocheck"
	// ProviderTypeGeoXYZ represents geocode.xyz.
	ProviderTypeGeoXYZ ProviderType = "geoxyz"
	// ProviderTypeGoogle represents the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeVisicom represents the Visicom API.
	ProviderTypeVisicom ProviderType = "visicom"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (yandex, google and visicom require one)
	RateLimit int          // Requests per second against the service
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided
// configuration. It applies the Factory pattern to decouple provider
// instantiation from the fallback logic.
//
// Returns an error if the provider type is unsupported or if provider
// creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeYandex:
		return newYandexProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config)
	case ProviderTypeGeoCheck:
		return NewGeoCheckProvider(config.Logger), nil
	case ProviderTypeGeoXYZ:
		return newGeoXYZProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeVisicom:
		return newVisicomProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// NewProviders builds the fallback chain in the given order.
func NewProviders(configs []ProviderConfig) ([]Provider, error) {
	providers := make([]Provider, 0, len(configs))
	for _, config := range configs {
		provider, err := NewProvider(config)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", config.Type, err)
		}
		providers = append(providers, provider)
	}

	return providers, nil
}

// newYandexProvider creates a Yandex geocoding provider.
func newYandexProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Yandex provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for Yandex API not set, set a default value", "value", config.RateLimit)
	}

	return NewYandexProvider(config.APIKey, config.RateLimit, config.Logger), nil
}

// newNominatimProvider creates a Nominatim geocoding provider.
func newNominatimProvider(config ProviderConfig) (Provider, error) {
	// Nominatim is free and doesn't require an API key. Its fair-use policy
	// caps anonymous clients at one request per second regardless of the
	// configured limit.
	if config.RateLimit > 1 {
		config.Logger.Warn("Nominatim fair use allows 1 request per second, lowering", "requested", config.RateLimit)
	}

	return NewNominatimProvider(config.Logger), nil
}

// newGeoXYZProvider creates a geocode.xyz geocoding provider.
func newGeoXYZProvider(config ProviderConfig) (Provider, error) {
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}

	return NewGeoXYZProvider(config.RateLimit, config.Logger), nil
}

// newVisicomProvider creates a Visicom geocoding provider.
func newVisicomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Visicom provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 1
	}

	return NewVisicomProvider(config.APIKey, config.RateLimit, config.Logger), nil
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
