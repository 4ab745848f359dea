package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ManifestPath != "seed.yaml" {
		t.Errorf("Expected manifest_path to be 'seed.yaml', got '%s'", cfg.ManifestPath)
	}

	if cfg.Database.Provider != "postgresql" {
		t.Errorf("Expected database provider to be 'postgresql', got '%s'", cfg.Database.Provider)
	}

	if cfg.Database.URLEnv != "DATABASE_URL" {
		t.Errorf("Expected database url_env to be 'DATABASE_URL', got '%s'", cfg.Database.URLEnv)
	}

	if cfg.Geocoder.CachePath != "geocode_cache.db" {
		t.Errorf("Expected geocoder cache_path to be 'geocode_cache.db', got '%s'", cfg.Geocoder.CachePath)
	}

	if cfg.Geocoder.MaxRetries != 3 {
		t.Errorf("Expected geocoder max_retries to be 3, got %d", cfg.Geocoder.MaxRetries)
	}

	if cfg.BackoffBase() != 500*time.Millisecond {
		t.Errorf("Expected backoff base of 500ms, got %v", cfg.BackoffBase())
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	viper.Set("manifest_path", "db/seed.yaml")
	viper.Set("database.provider", "sqlite")
	viper.Set("geocoder.max_retries", 5)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ManifestPath != "db/seed.yaml" {
		t.Errorf("Expected manifest_path override, got '%s'", cfg.ManifestPath)
	}
	if cfg.Database.Provider != "sqlite" {
		t.Errorf("Expected provider override, got '%s'", cfg.Database.Provider)
	}
	if cfg.Geocoder.MaxRetries != 5 {
		t.Errorf("Expected max_retries override, got %d", cfg.Geocoder.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}

	cfg.Database.Provider = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected unsupported provider to fail validation")
	}

	cfg.Database.Provider = "sqlite"
	cfg.Geocoder.MaxRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected negative max_retries to fail validation")
	}
}

func TestGetDatabaseURL(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/dealership")
	url, err := cfg.GetDatabaseURL()
	if err != nil {
		t.Fatalf("Failed to get database URL: %v", err)
	}
	if url != "postgres://localhost:5432/dealership" {
		t.Errorf("Unexpected database URL: %s", url)
	}

	t.Setenv("DATABASE_URL", "")
	if _, err := cfg.GetDatabaseURL(); err == nil {
		t.Error("Expected missing DATABASE_URL to error")
	}
}
