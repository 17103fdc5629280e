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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/metrics"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
	"github.com/pgEdge/pgedge-parksim/internal/simulation"
	"github.com/pgEdge/pgedge-parksim/internal/telemetry"
)

var (
	runTimezone    string
	runInterval    int
	runDuration    int
	runMetricsAddr string
	runMeasurement string
	runDryRun      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the occupancy simulation",
	Long: `Run the occupancy simulation, writing one sample per facility space
type every interval. The simulation continues until interrupted with Ctrl+C
or until the specified duration expires.

The InfluxDB sink reads INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG and
INFLUXDB_BUCKET from the environment or a .env file.

Example:
  pgedge-parksim run
  pgedge-parksim run --duration 30 --metrics-addr :9108
  pgedge-parksim run --dry-run --interval 1 --log-level debug
  pgedge-parksim run --sink sqlite`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTimezone, "timezone", "",
		"reference timezone for time-of-day regimes (default: Europe/Paris)")
	runCmd.Flags().IntVar(&runInterval, "interval", 0,
		"tick interval in seconds (default: 60)")
	runCmd.Flags().IntVar(&runDuration, "duration", 0,
		"duration to run in minutes (0 = run indefinitely)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address (e.g. :9108)")
	runCmd.Flags().StringVar(&runMeasurement, "measurement", "",
		"measurement name of emitted samples")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false,
		"keep samples in memory instead of writing them to a store")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runTimezone != "" {
		cfg.Run.Timezone = runTimezone
	}
	if runInterval > 0 {
		cfg.Run.Interval = runInterval
	}
	if runDuration > 0 {
		cfg.Run.Duration = runDuration
	}
	if runMetricsAddr != "" {
		cfg.Run.MetricsAddr = runMetricsAddr
	}
	if runMeasurement != "" {
		cfg.Sink.Measurement = runMeasurement
	}
	if runDryRun {
		cfg.Sink.Kind = telemetry.KindMemory
	}

	// Validate configuration before any component is built
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	registry, err := facility.New(cfg.Facilities)
	if err != nil {
		return err
	}

	resolver, err := occupancy.NewResolver(cfg.Run.Timezone)
	if err != nil {
		return err
	}

	ctx := context.Background()

	durationMsg := "indefinitely"
	if cfg.Run.Duration > 0 {
		durationMsg = fmt.Sprintf("%d minutes", cfg.Run.Duration)
	}

	logging.Info().
		Str("sink", cfg.Sink.Kind).
		Int("facilities", registry.Len()).
		Str("timezone", resolver.Location().String()).
		Int("interval_seconds", cfg.Run.Interval).
		Str("duration", durationMsg).
		Msg("Starting parking simulation")

	// Set up context with cancellation (and optional timeout)
	var cancel context.CancelFunc
	if cfg.Run.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Run.Duration)*time.Minute)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	sink, err := telemetry.Open(ctx, cfg.SinkSettings())
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", cfg.Sink.Kind, err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close sink")
		}
	}()

	m := metrics.New()
	if cfg.Run.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Run.MetricsAddr); err != nil {
				logging.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	driver, err := simulation.NewDriver(simulation.DriverConfig{
		Registry:    registry,
		Sink:        sink,
		Resolver:    resolver,
		Interval:    time.Duration(cfg.Run.Interval) * time.Second,
		Measurement: cfg.Sink.Measurement,
		Metrics:     m,
	})
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	// Run until context is cancelled (signal or timeout)
	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("driver error: %w", err)
	}

	if ctx.Err() == context.DeadlineExceeded {
		logging.Info().Msg("Duration limit reached, stopping simulation")
	} else {
		logging.Info().Msg("Parking simulation stopped")
	}
	driver.PrintSummary()
	return nil
}
