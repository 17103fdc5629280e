//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-parksim/internal/config"
	"github.com/pgEdge/pgedge-parksim/internal/datagen"
	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/telemetry"
)

var (
	initOutput   string
	initGenerate int
	initSeed     uint64
	initForce    bool
	initReset    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter YAML configuration containing the built-in facility
catalog. Use --generate to append fabricated facilities for larger demo
fleets; --seed makes the generated catalog reproducible.

InfluxDB credentials are never written; set INFLUXDB_URL, INFLUXDB_TOKEN,
INFLUXDB_ORG and INFLUXDB_BUCKET in the environment or a .env file.

Example:
  pgedge-parksim init
  pgedge-parksim init --generate 25 --seed 42 --output fleet.yaml
  pgedge-parksim init --force --reset-store --sink postgres`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initOutput, "output", "pgedge-parksim.yaml",
		"path of the config file to write")
	initCmd.Flags().IntVar(&initGenerate, "generate", 0,
		"number of extra facilities to fabricate")
	initCmd.Flags().Uint64Var(&initSeed, "seed", 0,
		"random seed for generated facilities (0 = random)")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing config file")
	initCmd.Flags().BoolVar(&initReset, "reset-store", false,
		"discard every sample already in the configured store")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initGenerate < 0 {
		return &config.ConfigurationError{Key: "generate", Reason: "must be non-negative"}
	}

	defs := starterFacilities(cfg.Facilities, initGenerate, initSeed)

	// Never write a catalog the run command would reject
	if _, err := facility.New(defs); err != nil {
		return err
	}

	if err := writeStarterConfig(initOutput, cfg, defs, initForce); err != nil {
		return err
	}

	logging.Info().
		Str("path", initOutput).
		Int("facilities", len(defs)).
		Int("generated", initGenerate).
		Msg("Configuration written")

	if initReset {
		return resetStore(context.Background())
	}
	return nil
}

// resetStore discards the samples held by the configured sink.
func resetStore(ctx context.Context) error {
	if err := cfg.ValidateQuery(); err != nil {
		return err
	}

	sink, err := telemetry.Open(ctx, cfg.SinkSettings())
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", cfg.Sink.Kind, err)
	}
	defer sink.Close()

	r, ok := sink.(telemetry.Resetter)
	if !ok {
		return fmt.Errorf("the %s sink cannot be reset", cfg.Sink.Kind)
	}

	logging.Warn().Str("sink", cfg.Sink.Kind).Msg("Discarding stored samples")
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// starterFacilities returns base followed by n generated facilities.
func starterFacilities(base []facility.Definition, n int, seed uint64) []facility.Definition {
	if len(base) == 0 {
		base = facility.Defaults()
	}

	defs := make([]facility.Definition, len(base), len(base)+n)
	copy(defs, base)
	if n == 0 {
		return defs
	}

	faker := datagen.NewFaker()
	if seed != 0 {
		faker = datagen.NewFakerWithSeed(seed)
	}

	reserved := make([]string, len(base))
	for i, d := range base {
		reserved[i] = d.Name
	}

	return append(defs, datagen.NewFacilityGenerator(faker, reserved).Generate(n)...)
}

// writeStarterConfig writes the non-secret settings of c with defs as the
// catalog.
func writeStarterConfig(path string, c *config.Config, defs []facility.Definition, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("log_level", c.LogLevel)
	v.Set("sink.kind", c.Sink.Kind)
	v.Set("sink.path", c.Sink.Path)
	v.Set("sink.measurement", c.Sink.Measurement)
	v.Set("run.timezone", c.Run.Timezone)
	v.Set("run.interval", c.Run.Interval)
	v.Set("run.duration", c.Run.Duration)
	v.Set("facilities", defs)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
