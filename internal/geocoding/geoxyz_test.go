package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/medatlas/geoenrich/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoXYZProvider_Geocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Contains(t, req.URL.String(), "geocode.xyz")
				assert.Equal(t, "/Kazan", req.URL.Path)
				assert.Equal(t, "1", req.URL.Query().Get("json"))

				responseBody := `{"latt":"55.79864","longt":"49.10646"}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		coords, err := provider.Geocode(ctx, "Kazan")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 55.79864, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 49.10646, coords.Longitude, 0.0001)
	})

	t.Run("throttle error object is transient", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				body := `{"error":{"code":"006","description":"Request Throttled."}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		assert.True(t, geocoding.IsNetwork(err))
	})

	t.Run("spent credits mean quota exceeded", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				body := `{"error":{"code":"003","description":"Account over credit limit."}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrQuotaExceeded)
	})

	t.Run("auth failure means quota exceeded", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusForbidden,
					Body:       io.NopCloser(bytes.NewBufferString(``)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrQuotaExceeded)
	})

	t.Run("unknown place error is a definitive miss", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				body := `{"error":{"code":"008","description":"Your request produced no suggestions."}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(body)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "nowhere at all")

		require.ErrorIs(t, err, geocoding.ErrNoResult)
	})

	t.Run("empty coordinates is a definitive miss", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`{"latt":"","longt":""}`)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrNoResult)
	})

	t.Run("unparseable coordinates are malformed", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`{"latt":"fifty","longt":"49.1"}`)),
				}, nil
			},
		}

		provider := geocoding.NewGeoXYZProviderWithClient(mockClient, testLimiter(), logger)
		_, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrMalformedResponse)
	})
}
