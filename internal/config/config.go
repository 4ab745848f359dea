package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ManifestPath string   `json:"manifest_path" mapstructure:"manifest_path"`
	Database     Database `json:"database" mapstructure:"database"`
	Geocoder     Geocoder `json:"geocoder" mapstructure:"geocoder"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Geocoder struct {
	Endpoint       string  `json:"endpoint" mapstructure:"endpoint"`
	APIKeyEnv      string  `json:"api_key_env" mapstructure:"api_key_env"`
	CachePath      string  `json:"cache_path" mapstructure:"cache_path"`
	MaxRetries     int     `json:"max_retries" mapstructure:"max_retries"`
	BackoffBaseMS  int     `json:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	RequestsPerSec float64 `json:"requests_per_sec" mapstructure:"requests_per_sec"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = "seed.yaml"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Geocoder.Endpoint == "" {
		cfg.Geocoder.Endpoint = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.Geocoder.APIKeyEnv == "" {
		cfg.Geocoder.APIKeyEnv = "GEOCODER_API_KEY"
	}
	if cfg.Geocoder.CachePath == "" {
		cfg.Geocoder.CachePath = "geocode_cache.db"
	}
	if cfg.Geocoder.MaxRetries == 0 {
		cfg.Geocoder.MaxRetries = 3
	}
	if cfg.Geocoder.BackoffBaseMS == 0 {
		cfg.Geocoder.BackoffBaseMS = 500
	}
	if cfg.Geocoder.RequestsPerSec == 0 {
		cfg.Geocoder.RequestsPerSec = 1
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// GetGeocoderAPIKey returns the provider key, which may legitimately be
// empty for keyless endpoints.
func (c *Config) GetGeocoderAPIKey() string {
	return os.Getenv(c.Geocoder.APIKeyEnv)
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Geocoder.BackoffBaseMS) * time.Millisecond
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.ManifestPath == "" {
		return fmt.Errorf("manifest_path cannot be empty")
	}
	if c.Geocoder.MaxRetries < 0 {
		return fmt.Errorf("geocoder max_retries cannot be negative")
	}

	return nil
}
