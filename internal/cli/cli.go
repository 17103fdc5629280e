//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-parksim.
package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-parksim/internal/config"
	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy/profiles"
	"github.com/pgEdge/pgedge-parksim/pkg/version"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	sinkKind string
	logLevel string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-parksim",
		Short: "Parking occupancy simulator emitting time-series telemetry",
		Long: `pgedge-parksim simulates the occupancy of a catalog of parking
facilities and writes one sample per facility space type every tick to a
time-series store (InfluxDB by default).

Occupancy follows a time-of-day target curve evaluated in a reference
timezone (Europe/Paris by default) and moves toward it at a bounded rate:
at most 1% of capacity per tick during the day and 0.1% per tick at night
and on weekends.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-parksim.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "",
		"dotenv file seeding the environment (default: ./.env)")
	rootCmd.PersistentFlags().StringVar(&sinkKind, "sink", "",
		"sample store: influxdb, postgres, sqlite, memory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(facilitiesCmd)
	rootCmd.AddCommand(profilesCmd)
}

func initConfig() error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if sinkKind != "" {
		cfg.Sink.Kind = sinkKind
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var facilitiesCmd = &cobra.Command{
	Use:   "facilities",
	Short: "List the configured facility catalog",
	Long: `Validate and list the facility catalog. The built-in catalog is
used when the config file defines no facilities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := facility.New(cfg.Facilities)
		if err != nil {
			return err
		}

		cmd.Println("Configured facilities:")
		for _, def := range registry.All() {
			profile := def.Profile
			if profile == "" {
				profile = profiles.DefaultProfile
			}

			cmd.Println()
			cmd.Printf("  %s (%d spaces, profile %s)\n", def.Name, def.TotalSpaces, profile)
			for _, st := range def.SpaceTypes {
				cmd.Printf("    %-12s %5d\n", st.Name, st.Capacity)
			}
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List available occupancy profiles",
	Long: `List the occupancy profiles that map the local time of day and the
weekday/weekend distinction to a target occupancy ratio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := profiles.List()
		width := 0
		for _, name := range names {
			width = max(width, len(name))
		}

		cmd.Println("Available occupancy profiles:")
		cmd.Println()
		for _, name := range names {
			p, err := profiles.Get(name)
			if err != nil {
				return err
			}
			cmd.Printf("  %s%s - %s\n", name, strings.Repeat(" ", width-len(name)), p.Description())
		}
		cmd.Println()
		cmd.Println("Profiles affect:")
		cmd.Println("  - The target ratio throughout the day")
		cmd.Println("  - Weekend vs weekday occupancy levels")
		cmd.Println("  - Lunch time dips")
		return nil
	},
}
