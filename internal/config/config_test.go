package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medatlas/geoenrich/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "windows-1251", cfg.Charset)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, []string{"nominatim", "geocheck"}, cfg.Providers)

	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
	assert.Equal(t, time.Second, cfg.Retry.ProviderDelay)

	assert.Empty(t, cfg.Yandex.APIKey)
	assert.Equal(t, 5, cfg.Yandex.RateLimit)
	assert.Equal(t, 1000, cfg.Yandex.Quota)
	assert.Equal(t, 1, cfg.Nominatim.RateLimit)
	assert.Zero(t, cfg.Nominatim.Quota)
	assert.Empty(t, cfg.Google.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEOENRICH_ENV", "local")
	t.Setenv("GEOENRICH_WORKERS", "12")
	t.Setenv("GEOENRICH_CHARSET", "utf-8")
	t.Setenv("GEOENRICH_METRICS_ADDR", ":9091")
	t.Setenv("GEOENRICH_PROVIDERS", "yandex,nominatim,google")
	t.Setenv("GEOENRICH_RETRY_ATTEMPTS", "5")
	t.Setenv("GEOENRICH_RETRY_BACKOFF", "250ms")
	t.Setenv("GEOENRICH_RETRY_PROVIDER_DELAY", "2s")
	t.Setenv("GEOENRICH_YANDEX_API_KEY", "testAPIKey")
	t.Setenv("GEOENRICH_YANDEX_QUOTA", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, "utf-8", cfg.Charset)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, []string{"yandex", "nominatim", "google"}, cfg.Providers)

	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Backoff)
	assert.Equal(t, 2*time.Second, cfg.Retry.ProviderDelay)

	assert.Equal(t, "testAPIKey", cfg.Yandex.APIKey)
	assert.Equal(t, 50, cfg.Yandex.Quota)
	assert.Equal(t, 5, cfg.Yandex.RateLimit, "untouched keys keep their defaults")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `env: local
workers: 8
providers:
  - yandex
  - nominatim
retry:
  backoff: 500ms
yandex:
  api_key: file-key
  quota: 200
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geoenrich.yaml"), []byte(content), 0o600))
	t.Chdir(dir)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"yandex", "nominatim"}, cfg.Providers)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Backoff)
	assert.Equal(t, "file-key", cfg.Yandex.APIKey)
	assert.Equal(t, 200, cfg.Yandex.Quota)
	assert.Equal(t, "windows-1251", cfg.Charset)
	assert.Equal(t, 5, cfg.Yandex.RateLimit)
}

func TestLoad_BrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geoenrich.yaml"), []byte("env: [broken"), 0o600))
	t.Chdir(dir)

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestConfig_Provider(t *testing.T) {
	cfg := &config.Config{
		Yandex:    config.ProviderConfig{APIKey: "yandex-key", RateLimit: 5},
		Nominatim: config.ProviderConfig{RateLimit: 1},
		GeoCheck:  config.ProviderConfig{RateLimit: 2},
		GeoXYZ:    config.ProviderConfig{Quota: 10},
		Google:    config.ProviderConfig{APIKey: "google-key"},
	}

	assert.Equal(t, "yandex-key", cfg.Provider("yandex").APIKey)
	assert.Equal(t, 1, cfg.Provider("nominatim").RateLimit)
	assert.Equal(t, 2, cfg.Provider("geocheck").RateLimit)
	assert.Equal(t, 10, cfg.Provider("geoxyz").Quota)
	assert.Equal(t, "google-key", cfg.Provider("google").APIKey)
	assert.Zero(t, cfg.Provider("bogus"))
}
