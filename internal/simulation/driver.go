//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package simulation drives the occupancy model on a fixed tick cadence and
// emits one sample per facility space type per tick.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/metrics"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy/profiles"
	"github.com/pgEdge/pgedge-parksim/internal/telemetry"
)

const (
	// DefaultInterval is the tick period.
	DefaultInterval = 60 * time.Second

	// DefaultMeasurement is the measurement name of emitted samples.
	DefaultMeasurement = "parking_occupation"
)

// RunState is the lifecycle state of a Driver.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DriverConfig holds configuration for the simulation driver.
type DriverConfig struct {
	Registry    *facility.Registry
	Sink        telemetry.Sink
	Resolver    *occupancy.Resolver
	Interval    time.Duration
	Measurement string

	// Clock returns the current time; time.Now when nil.
	Clock func() time.Time

	// Metrics is optional.
	Metrics *metrics.Metrics

	// RunID tags every log line; generated when empty.
	RunID string
}

// Result is the outcome of one space type in one tick.
type Result struct {
	Key       occupancy.Key
	Capacity  int
	Target    float64
	Ratio     float64
	Occupied  int
	Available int
}

// TickReport summarises one tick.
type TickReport struct {
	Context     occupancy.TimeContext
	LowActivity bool
	Results     []Result
	Emitted     int
	Failed      int
}

// Driver owns the occupancy state of every (facility, space type) pair.
type Driver struct {
	pairs       []facility.Pair
	profiles    map[string]profiles.Profile
	tracker     *occupancy.Tracker
	sink        telemetry.Sink
	resolver    *occupancy.Resolver
	interval    time.Duration
	measurement string
	clock       func() time.Time
	metrics     *metrics.Metrics
	runID       string
	log         zerolog.Logger

	state     atomic.Int32
	startTime time.Time

	// Counters
	totalTicks    atomic.Int64
	failedTicks   atomic.Int64
	emitted       atomic.Int64
	failedSamples atomic.Int64
}

// NewDriver creates a driver with every pair at a zero ratio.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Registry == nil {
		return nil, errors.New("facility registry is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("telemetry sink is required")
	}

	resolver := cfg.Resolver
	if resolver == nil {
		var err error
		resolver, err = occupancy.NewResolver(occupancy.DefaultTimezone)
		if err != nil {
			return nil, err
		}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	measurement := cfg.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	runID := cfg.RunID
	if runID == "" {
		runID = xid.New().String()
	}

	pairs := cfg.Registry.Pairs()
	profs := make(map[string]profiles.Profile)
	for _, p := range pairs {
		if _, ok := profs[p.Profile]; ok {
			continue
		}
		prof, err := profiles.Get(p.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		profs[p.Profile] = prof
	}

	return &Driver{
		pairs:       pairs,
		profiles:    profs,
		tracker:     occupancy.NewTracker(cfg.Registry.Keys()),
		sink:        cfg.Sink,
		resolver:    resolver,
		interval:    interval,
		measurement: measurement,
		clock:       clock,
		metrics:     cfg.Metrics,
		runID:       runID,
		log:         logging.With("run_id", runID),
	}, nil
}

// RunID returns the identifier attached to this driver's log lines.
func (d *Driver) RunID() string {
	return d.runID
}

// Status returns the lifecycle state.
func (d *Driver) Status() RunState {
	return RunState(d.state.Load())
}

// Occupancy returns the current state of one pair.
func (d *Driver) Occupancy(key occupancy.Key) (occupancy.State, bool) {
	return d.tracker.Get(key)
}

// Run ticks immediately, then every interval, until ctx is cancelled.
// A failing or panicking tick is logged and the loop carries on.
func (d *Driver) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("driver is %s, not idle", d.Status())
	}
	defer d.state.Store(int32(StateStopped))

	d.startTime = time.Now()

	d.log.Info().
		Int("pairs", len(d.pairs)).
		Dur("interval", d.interval).
		Str("timezone", d.resolver.Location().String()).
		Float64("day_max_step", occupancy.DayMaxStep).
		Float64("low_max_step", occupancy.LowMaxStep).
		Msg("Starting parking simulation")

	d.safeTick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Debug().Msg("Simulation loop stopped")
			return nil
		case <-ticker.C:
			d.safeTick(ctx)
		}
	}
}

func (d *Driver) safeTick(ctx context.Context) {
	start := time.Now()
	d.metrics.TickStarted()

	defer func() {
		if r := recover(); r != nil {
			d.failedTicks.Add(1)
			d.metrics.TickFailed()
			d.log.Error().
				Str("panic", fmt.Sprint(r)).
				Msg("Tick failed")
		}
		d.metrics.TickFinished(time.Since(start))
	}()

	if _, err := d.Tick(ctx); err != nil {
		// Cancellation at shutdown is not a tick failure.
		if ctx.Err() != nil {
			return
		}
		d.failedTicks.Add(1)
		d.metrics.TickFailed()
		d.log.Error().Err(err).Msg("Tick failed")
	}
}

// Tick resolves the time once, advances every pair in registry order and
// writes one sample per pair. Sink failures are logged and the sample is
// dropped; the remaining pairs are still processed. Tick returns an error
// only when ctx is cancelled, leaving later pairs untouched.
func (d *Driver) Tick(ctx context.Context) (*TickReport, error) {
	d.totalTicks.Add(1)

	tc := d.resolver.Resolve(d.clock())
	low := occupancy.IsLowActivity(tc)

	targets := make(map[string]float64, len(d.profiles))
	for name, prof := range d.profiles {
		targets[name] = prof.Target(tc)
	}

	report := &TickReport{
		Context:     tc,
		LowActivity: low,
		Results:     make([]Result, 0, len(d.pairs)),
	}

	for _, p := range d.pairs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		target := targets[p.Profile]
		st := d.tracker.Step(p.Key, p.Capacity, target, low)

		res := Result{
			Key:       p.Key,
			Capacity:  p.Capacity,
			Target:    target,
			Ratio:     st.Ratio,
			Occupied:  st.Occupied,
			Available: p.Capacity - st.Occupied,
		}
		report.Results = append(report.Results, res)
		d.metrics.SetOccupancy(p.Key.Facility, p.Key.SpaceType, res.Ratio, res.Occupied)

		if err := d.sink.Write(ctx, d.sample(tc, res)); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			d.failedSamples.Add(1)
			d.metrics.SampleEmitted(false)

			emitErr := &telemetry.EmissionError{
				Instant:   tc.Instant,
				Facility:  p.Key.Facility,
				SpaceType: p.Key.SpaceType,
				Err:       err,
			}
			d.log.Error().
				Err(emitErr).
				Time("tick", tc.Instant).
				Str("facility", p.Key.Facility).
				Str("space_type", p.Key.SpaceType).
				Msg("Sample dropped")
			continue
		}

		report.Emitted++
		d.emitted.Add(1)
		d.metrics.SampleEmitted(true)
	}

	d.logTick(report)
	return report, nil
}

func (d *Driver) sample(tc occupancy.TimeContext, res Result) telemetry.Sample {
	return telemetry.Sample{
		Measurement: d.measurement,
		Tags: map[string]string{
			"parking_name": res.Key.Facility,
			"space_type":   res.Key.SpaceType,
			"is_weekend":   strconv.FormatBool(tc.Weekend),
		},
		Fields: map[string]any{
			"occupied_spaces":  res.Occupied,
			"available_spaces": res.Available,
			"total_spaces":     res.Capacity,
			"occupation_rate":  res.Ratio,
		},
		Time: tc.Instant,
	}
}

func (d *Driver) logTick(r *TickReport) {
	period := "weekday"
	if r.Context.Weekend {
		period = "weekend"
	}

	d.log.Info().
		Str("local_time", r.Context.Local.Format("Mon 2006-01-02 15:04 MST")).
		Str("period", period).
		Bool("low_activity", r.LowActivity).
		Int("emitted", r.Emitted).
		Int("failed", r.Failed).
		Msg("Occupancy update")

	for _, res := range r.Results {
		d.log.Info().
			Str("facility", res.Key.Facility).
			Str("space_type", res.Key.SpaceType).
			Int("total", res.Capacity).
			Int("occupied", res.Occupied).
			Int("available", res.Available).
			Str("ratio", fmt.Sprintf("%.1f%%", res.Ratio*100)).
			Msg("")
	}
}

// PrintSummary logs totals and the final state of every pair.
func (d *Driver) PrintSummary() {
	elapsed := time.Duration(0)
	if !d.startTime.IsZero() {
		elapsed = time.Since(d.startTime)
	}

	d.log.Info().
		Dur("duration", elapsed).
		Int64("ticks", d.totalTicks.Load()).
		Int64("failed_ticks", d.failedTicks.Load()).
		Int64("samples_emitted", d.emitted.Load()).
		Int64("samples_failed", d.failedSamples.Load()).
		Msg("Final summary")

	for _, p := range d.pairs {
		st, _ := d.tracker.Get(p.Key)
		d.log.Info().
			Str("facility", p.Key.Facility).
			Str("space_type", p.Key.SpaceType).
			Int("occupied", st.Occupied).
			Str("ratio", fmt.Sprintf("%.1f%%", st.Ratio*100)).
			Msg("")
	}
}

// Stats are the driver's running totals.
type Stats struct {
	Ticks          int64
	FailedTicks    int64
	SamplesEmitted int64
	SamplesFailed  int64
}

// Stats returns the running totals.
func (d *Driver) Stats() Stats {
	return Stats{
		Ticks:          d.totalTicks.Load(),
		FailedTicks:    d.failedTicks.Load(),
		SamplesEmitted: d.emitted.Load(),
		SamplesFailed:  d.failedSamples.Load(),
	}
}
