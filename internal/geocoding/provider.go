package geocoding

import (
	"context"
	"net/http"

	"github.com/medatlas/geoenrich/internal/models"
)

// Provider is an interface that defines a geocoding backend. Geocode takes
// a context and a free-text address and returns the corresponding
// coordinates, or an error drawn from the failure taxonomy in errors.go.
// Name labels the provider in logs, metrics and quota tracking.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
