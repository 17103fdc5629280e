//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package telemetry persists occupancy samples to a time-series store.
package telemetry

import (
	"context"
	"fmt"
	"time"
)

// Sink kinds.
const (
	KindInfluxDB = "influxdb"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindMemory   = "memory"
)

// Sample is one tagged measurement.
type Sample struct {
	Measurement string
	Tags        map[string]string

	// Fields holds numeric, string or boolean values.
	Fields map[string]any
	Time   time.Time
}

// Row is one result row of a query, keyed by column name.
type Row map[string]any

// Sink accepts samples and answers range queries.
type Sink interface {
	// Write persists one sample. It returns once the store has accepted
	// or rejected it.
	Write(ctx context.Context, s Sample) error

	// Query runs a store-specific query expression.
	Query(ctx context.Context, expr string) ([]Row, error)

	// Close releases the underlying client.
	Close() error
}

// Resetter is implemented by sinks that can discard stored samples.
type Resetter interface {
	Reset(ctx context.Context) error
}

// InfluxDBConfig holds InfluxDB v2 connection settings.
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Config selects and configures a sink.
type Config struct {
	Kind string

	InfluxDB InfluxDBConfig

	// Connection is the PostgreSQL connection string.
	Connection string

	// Path is the SQLite database file.
	Path string

	// Timezone is recorded in store metadata where supported.
	Timezone string
}

// Open creates the sink selected by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Kind {
	case KindInfluxDB, "":
		return NewInfluxDB(ctx, cfg.InfluxDB)
	case KindPostgres:
		return NewPostgres(ctx, cfg.Connection, cfg.Timezone)
	case KindSQLite:
		return NewSQLite(ctx, cfg.Path)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown sink kind: %s", cfg.Kind)
	}
}

// EmissionError reports a sample the sink failed to persist.
type EmissionError struct {
	Instant   time.Time
	Facility  string
	SpaceType string
	Err       error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("failed to emit sample for %s/%s at %s: %v",
		e.Facility, e.SpaceType, e.Instant.Format(time.RFC3339), e.Err)
}

func (e *EmissionError) Unwrap() error {
	return e.Err
}

// QueryError reports a failed query.
type QueryError struct {
	Expr string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
