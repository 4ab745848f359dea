package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/exportdeck/seedkit/internal/config"
	"github.com/exportdeck/seedkit/internal/planner"
	"github.com/exportdeck/seedkit/internal/schema"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the insertion order without touching the database",
	Long:  `Load the seed manifest, build the foreign-key dependency graph and print the insertion order a seed run would use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		manifest, err := schema.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return err
		}

		order, err := planner.Plan(manifest)
		if err != nil {
			return err
		}

		color.Green("📊 Found %d tables", len(manifest.Tables))
		color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
