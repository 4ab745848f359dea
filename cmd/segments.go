package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/exportdeck/seedkit/internal/config"
	"github.com/exportdeck/seedkit/internal/db"
	"github.com/exportdeck/seedkit/internal/segment"
)

var segmentsAt string

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Compute RFM customer segments from the orders table",
	Long: `Aggregate the orders table per customer and print recency, frequency
and monetary quartile scores with the mapped segment label. Scores are
recomputed on every run; nothing is persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		at := time.Now()
		if segmentsAt != "" {
			at, err = time.Parse("2006-01-02", segmentsAt)
			if err != nil {
				return fmt.Errorf("invalid --at date %q, want YYYY-MM-DD", segmentsAt)
			}
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

		aggs, err := segment.LoadAggregates(cmd.Context(), conn)
		if err != nil {
			return err
		}
		if len(aggs) == 0 {
			color.Yellow("⚠️  No orders found, nothing to segment")
			return nil
		}

		results := segment.Score(aggs, at)

		color.Cyan("👥 %d customers segmented (reference date %s)", len(results), at.Format("2006-01-02"))
		fmt.Printf("%-12s %3s %3s %3s  %s\n", "customer", "R", "F", "M", "segment")
		for _, res := range results {
			fmt.Printf("%-12d %3d %3d %3d  %s\n", res.CustomerID, res.Recency, res.Frequency, res.Monetary, res.Label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.Flags().StringVar(&segmentsAt, "at", "", "Reference date for recency (YYYY-MM-DD, default today)")
}
