//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package telemetry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-parksim/internal/db"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
)

// Postgres appends samples to a PostgreSQL table with JSONB tags and fields.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, creates the sample table and records run metadata.
func NewPostgres(ctx context.Context, connString, timezone string) (*Postgres, error) {
	if connString == "" {
		return nil, fmt.Errorf("connection string is required for the postgres sink")
	}

	pool, err := db.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	if prev, err := db.GetMetadataValue(ctx, pool, "timezone"); err == nil && prev != timezone {
		logging.Warn().
			Str("previous", prev).
			Str("timezone", timezone).
			Msg("Sample store was last written with a different timezone")
	}

	if err := db.SaveMetadata(ctx, pool, timezone); err != nil {
		logging.Warn().Err(err).Msg("Could not save run metadata")
	}

	return &Postgres{pool: pool}, nil
}

// Write inserts one sample.
func (s *Postgres) Write(ctx context.Context, sample Sample) error {
	return db.InsertSample(ctx, s.pool, sample.Time, sample.Measurement, sample.Tags, sample.Fields)
}

// Query runs a SQL statement.
func (s *Postgres) Query(ctx context.Context, expr string) ([]Row, error) {
	rows, err := db.QueryRows(ctx, s.pool, expr)
	if err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out, nil
}

// Close closes the connection pool.
// Reset drops and recreates the sample and metadata tables.
func (s *Postgres) Reset(ctx context.Context) error {
	if err := db.DropSchema(ctx, s.pool); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return db.EnsureSchema(ctx, s.pool)
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
