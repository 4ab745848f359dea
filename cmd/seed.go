package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/exportdeck/seedkit/internal/config"
	"github.com/exportdeck/seedkit/internal/dataset"
	"github.com/exportdeck/seedkit/internal/db"
	"github.com/exportdeck/seedkit/internal/inserter"
	"github.com/exportdeck/seedkit/internal/planner"
	"github.com/exportdeck/seedkit/internal/schema"
)

var seedSkipBadRows bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database from the manifest's CSV files",
	Long: `Load every CSV named in the seed manifest, validate the rows against
their table specs, order the tables so foreign keys always resolve and
insert everything as one atomic transaction. Either all rows commit or
the database is left untouched.`,
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

		color.Cyan("🌱 Starting database seeding...")
		color.Green("📊 Found %d tables", len(manifest.Tables))
		color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))

		policy := dataset.RejectBatch
		if seedSkipBadRows {
			policy = dataset.SkipAndReport
		}

		rows := make(map[string][]schema.RowRecord, len(order))
		for _, name := range order {
			res, err := dataset.Load(manifest.Table(name), policy)
			if err != nil {
				return err
			}
			for _, skipped := range res.Skipped {
				color.Yellow("⚠️  Skipping bad row: %v", skipped)
			}
			rows[name] = res.Rows
		}

		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return err
		}
		conn, err := db.Open(cfg.Database.Provider, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		total, err := inserter.New(conn, cfg.Database.Provider).Insert(cmd.Context(), manifest, order, rows)
		if err != nil {
			var failure *inserter.InsertionFailure
			if errors.As(err, &failure) {
				color.Yellow("🔄 Transaction rolled back, no rows were committed")
			}
			return err
		}

		color.Green("✅ Seeding completed: %d rows committed in one transaction", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedSkipBadRows, "skip-bad-rows", false, "Skip rows that fail validation instead of rejecting the whole batch")
}
