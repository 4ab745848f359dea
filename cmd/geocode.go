package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/exportdeck/seedkit/internal/config"
	"github.com/exportdeck/seedkit/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Look up and manage cached address coordinates",
}

var geocodeLookupCmd = &cobra.Command{
	Use:   "lookup <address>",
	Short: "Resolve an address through the persistent geocode cache",
	Long: `Resolve a free-text address to coordinates. Cached addresses are
answered locally; only a cache miss contacts the geocoding provider.
Unresolvable addresses are cached too, so the provider is never asked
the same hopeless question twice.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		res, err := cache.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if !res.Found {
			color.Yellow("❓ Address not resolvable: %s", args[0])
			return nil
		}
		color.Green("📍 %s → %.6f, %.6f", args[0], res.Coordinate.Latitude, res.Coordinate.Longitude)
		return nil
	},
}

var geocodeInvalidateCmd = &cobra.Command{
	Use:   "invalidate <address>",
	Short: "Drop one cached entry so the next lookup asks the provider again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Invalidate(args[0]); err != nil {
			return err
		}
		color.Green("🗑️  Invalidated cache entry for %q", geocode.NormalizeKey(args[0]))
		return nil
	},
}

func openCache() (*geocode.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider := geocode.NewHTTPProvider(cfg.Geocoder.Endpoint, cfg.GetGeocoderAPIKey(), cfg.Geocoder.RequestsPerSec)
	return geocode.Open(cfg.Geocoder.CachePath, provider, geocode.Options{
		MaxRetries:  cfg.Geocoder.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
	})
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.AddCommand(geocodeLookupCmd)
	geocodeCmd.AddCommand(geocodeInvalidateCmd)
}
