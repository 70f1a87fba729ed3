package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/medatlas/geoenrich/internal/dataset"
	"github.com/medatlas/geoenrich/internal/geocoding"
	"github.com/medatlas/geoenrich/internal/service"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the enrichment pipeline:
// the environment, worker pool size, dataset charset, the provider chain
// and per-provider credentials and limits. Values come from the optional
// geoenrich.yaml file and GEOENRICH_* environment variables, in that
// order of precedence.
type Config struct {
	Env         string   `yaml:"env" mapstructure:"env"`                   // Env is the current environment: local, dev, prod.
	Workers     int      `yaml:"workers" mapstructure:"workers"`           // Workers is the number of concurrent enrichment workers.
	Charset     string   `yaml:"charset" mapstructure:"charset"`           // Charset is the dataset character encoding.
	MetricsAddr string   `yaml:"metrics_addr" mapstructure:"metrics_addr"` // MetricsAddr enables the monitoring server when non-empty.
	Providers   []string `yaml:"providers" mapstructure:"providers"`       // Providers is the geocoding fallback chain, first tried first.

	Retry RetryConfig `yaml:"retry" mapstructure:"retry"` // Retry tunes attempts and delays of the resolver.

	Yandex    ProviderConfig `yaml:"yandex" mapstructure:"yandex"`       // Yandex holds the Yandex geocoder settings.
	Nominatim ProviderConfig `yaml:"nominatim" mapstructure:"nominatim"` // Nominatim holds the OSM Nominatim settings.
	GeoCheck  ProviderConfig `yaml:"geocheck" mapstructure:"geocheck"`   // GeoCheck holds the GeoCheck settings.
	GeoXYZ    ProviderConfig `yaml:"geoxyz" mapstructure:"geoxyz"`       // GeoXYZ holds the geocode.xyz settings.
	Google    ProviderConfig `yaml:"google" mapstructure:"google"`       // Google holds the Google Maps settings.
	Visicom   ProviderConfig `yaml:"visicom" mapstructure:"visicom"`     // Visicom holds the Visicom API settings.
}

// RetryConfig tunes how hard the resolver leans on each provider before
// moving down the chain.
type RetryConfig struct {
	Attempts      int           `yaml:"attempts" mapstructure:"attempts"`             // Attempts per provider for transient failures.
	Backoff       time.Duration `yaml:"backoff" mapstructure:"backoff"`               // Base delay between retries, grows linearly.
	ProviderDelay time.Duration `yaml:"provider_delay" mapstructure:"provider_delay"` // Pause before falling through to the next provider.
}

// ProviderConfig holds one geocoding provider's credentials and limits.
type ProviderConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`       // APIKey authenticates against the provider, where required.
	RateLimit int    `yaml:"rate_limit" mapstructure:"rate_limit"` // RateLimit caps requests per second.
	Quota     int    `yaml:"quota" mapstructure:"quota"`           // Quota caps requests per run; 0 means unmetered.
}

// Provider returns the settings block for the named provider, or a zero
// block for a name the configuration does not know.
func (c *Config) Provider(name string) ProviderConfig {
	switch name {
	case "yandex":
		return c.Yandex
	case "nominatim":
		return c.Nominatim
	case "geocheck":
		return c.GeoCheck
	case "geoxyz":
		return c.GeoXYZ
	case "google":
		return c.Google
	case "visicom":
		return c.Visicom
	}

	return ProviderConfig{}
}

// Load reads configuration from the optional geoenrich.yaml file and the
// environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("geoenrich")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/geoenrich")

	// Environment
	v.SetEnvPrefix("GEOENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one for AutomaticEnv to surface it
	// through Unmarshal.
	v.SetDefault("env", "production")
	v.SetDefault("workers", service.DefaultWorkers)
	v.SetDefault("charset", dataset.DefaultCharset)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("providers", []string{"nominatim", "geocheck"})
	v.SetDefault("retry.attempts", geocoding.DefaultAttempts)
	v.SetDefault("retry.backoff", geocoding.DefaultBackoff)
	v.SetDefault("retry.provider_delay", geocoding.DefaultProviderDelay)
	v.SetDefault("yandex.api_key", "")
	v.SetDefault("yandex.rate_limit", 5)
	v.SetDefault("yandex.quota", 1000)
	v.SetDefault("nominatim.api_key", "")
	v.SetDefault("nominatim.rate_limit", 1)
	v.SetDefault("nominatim.quota", 0)
	v.SetDefault("geocheck.api_key", "")
	v.SetDefault("geocheck.rate_limit", 1)
	v.SetDefault("geocheck.quota", 0)
	v.SetDefault("geoxyz.api_key", "")
	v.SetDefault("geoxyz.rate_limit", 1)
	v.SetDefault("geoxyz.quota", 0)
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.rate_limit", 50)
	v.SetDefault("google.quota", 0)
	v.SetDefault("visicom.api_key", "")
	v.SetDefault("visicom.rate_limit", 1)
	v.SetDefault("visicom.quota", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
