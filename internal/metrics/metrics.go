//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics exposes simulator counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pgEdge/pgedge-parksim/internal/logging"
)

// Metrics holds the simulator's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	tickFailures   prometheus.Counter
	samples        *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	occupancyRatio *prometheus.GaugeVec
	occupiedSpaces *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parksim",
			Name:      "ticks_total",
			Help:      "Simulation ticks started.",
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parksim",
			Name:      "tick_failures_total",
			Help:      "Ticks aborted by an error.",
		}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parksim",
			Name:      "samples_total",
			Help:      "Samples handed to the sink, by result.",
		}, []string{"result"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parksim",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one tick including emission.",
			Buckets:   prometheus.DefBuckets,
		}),
		occupancyRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "parksim",
			Name:      "occupancy_ratio",
			Help:      "Current occupancy ratio.",
		}, []string{"parking_name", "space_type"}),
		occupiedSpaces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "parksim",
			Name:      "occupied_spaces",
			Help:      "Current occupied space count.",
		}, []string{"parking_name", "space_type"}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.tickFailures,
		m.samples,
		m.tickDuration,
		m.occupancyRatio,
		m.occupiedSpaces,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TickStarted counts a tick.
func (m *Metrics) TickStarted() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// TickFailed counts an aborted tick.
func (m *Metrics) TickFailed() {
	if m == nil {
		return
	}
	m.tickFailures.Inc()
}

// TickFinished records tick duration.
func (m *Metrics) TickFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// SampleEmitted records the outcome of one sink write.
func (m *Metrics) SampleEmitted(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.samples.WithLabelValues("ok").Inc()
	} else {
		m.samples.WithLabelValues("failed").Inc()
	}
}

// SetOccupancy publishes the latest state of one space type.
func (m *Metrics) SetOccupancy(facility, spaceType string, ratio float64, occupied int) {
	if m == nil {
		return
	}
	m.occupancyRatio.WithLabelValues(facility, spaceType).Set(ratio)
	m.occupiedSpaces.WithLabelValues(facility, spaceType).Set(float64(occupied))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info().Str("addr", addr).Msg("Serving metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
