// cmd/lodgectl/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codr1/Lodgeicious/internal/config"
)

var (
	// Global flags
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lodgectl",
	Short: "Operator tooling for a Lodgeicious database",
	Long: `lodgectl manages the database behind a Lodgeicious storefront.

It applies migrations, loads a catalog of accommodations and activities from
YAML, and creates admin accounts. Point it at a database with --db, or at the
server's config.yaml with --config to reuse its database path and timezone.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the server config.yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides --config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(adminCmd)
}

// target is the database file and lodge timezone a command operates on.
type target struct {
	path     string
	location *time.Location
}

func resolveTarget() (target, error) {
	t := target{path: dbPath, location: time.UTC}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return target{}, err
		}
		t.location = cfg.Location()
		if t.path == "" {
			t.path = cfg.Database.Filename
		}
	}
	if t.path == "" {
		return target{}, fmt.Errorf("either --db or --config is required")
	}
	return t, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
