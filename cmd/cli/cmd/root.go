// Package cmd provides the CLI commands for rate-engine.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rate-engine/core/engine"
	"rate-engine/core/lock"
	"rate-engine/internal/config"
	"rate-engine/internal/logging"
	"rate-engine/store/sqlite"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rate-engine",
	Short: "Compute defensible hourly labor and contractor rates",
	Long: `rate-engine aggregates external rate observations into reproducible
hourly labor and contractor rates with full provenance capture.

Rates move through three lifecycle states: transient preview, softly
fixed snapshot, and hard-locked audit-immutable figure.

Examples:
  rate-engine projects add "Warehouse fit-out"
  rate-engine profiles add "Electrician" --model contractor
  rate-engine sources add 1 1000 --label "market survey"
  rate-engine works add 1 1 "Cabling" 10
  rate-engine resolve 1 1 --region 3
  rate-engine lock 1 --only-if-missing
  rate-engine aggregate --method median 625 1000 1125`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rate-engine.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(worksCmd)
	rootCmd.AddCommand(overridesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// openEngine opens the configured database and builds the engine over it.
// The returned store must be closed by the caller.
func openEngine(ctx context.Context) (*engine.Engine, *sqlite.Store, error) {
	cfg := config.Get()
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	eng := engine.New(engine.Stores{
		Observations: store,
		Overrides:    store,
		Projects:     store,
		Profiles:     store,
		Regions:      store,
		Works:        store,
	}, lock.WithWorkers(cfg.Engine.LockWorkers))
	return eng, store, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rate-engine version 0.1.0")
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		fmt.Printf("default method: %s\n", cfg.Engine.DefaultMethod)
		fmt.Printf("trim fraction:  %.2f\n", cfg.Engine.TrimFraction)
		fmt.Printf("lock workers:   %d\n", cfg.Engine.LockWorkers)
		fmt.Printf("database:       %s\n", cfg.Database.Path)
		return nil
	},
}
