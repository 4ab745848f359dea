package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "1.0.3"
)

var rootCmd = &cobra.Command{
	Use:   "seedkit",
	Short: "Seed a relational schema from CSV files and run customer analytics",
	Long: `
Seedkit loads one CSV file per table into a pre-existing relational
schema, ordering the inserts so foreign keys always resolve and
committing everything as a single atomic transaction.

On top of the seeded data it offers a small analytics layer: RFM
customer segmentation and a persistent geocode cache in front of an
external geocoding provider.

Database Support:
- PostgreSQL
- MySQL
- SQLite (embedded databases)`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("seedkit version %s\n", Version)
			os.Exit(0)
		}
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seedkit.config.json)")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("seedkit.config")
	}

	viper.AutomaticEnv()

	viper.ReadInConfig()
}
