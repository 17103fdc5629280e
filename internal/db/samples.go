//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/pkg/version"
)

// SamplesTable holds every emitted sample.
const SamplesTable = "parksim_samples"

const metadataTable = "parksim_metadata"

const createSamplesTableSQL = `
CREATE TABLE IF NOT EXISTS parksim_samples (
    time        TIMESTAMPTZ NOT NULL,
    measurement TEXT        NOT NULL,
    tags        JSONB       NOT NULL,
    fields      JSONB       NOT NULL
)`

const createSamplesIndexSQL = `
CREATE INDEX IF NOT EXISTS parksim_samples_time_idx
    ON parksim_samples (measurement, time)`

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS parksim_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// EnsureSchema creates the sample and metadata tables if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []string{createSamplesTableSQL, createSamplesIndexSQL, createMetadataTableSQL} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// InsertSample appends one sample.
func InsertSample(ctx context.Context, pool *pgxpool.Pool, ts time.Time, measurement string,
	tags map[string]string, fields map[string]any) error {
	_, err := pool.Exec(ctx, `
        INSERT INTO parksim_samples (time, measurement, tags, fields)
        VALUES ($1, $2, $3, $4)
    `, ts, measurement, tags, fields)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// QueryRows runs an arbitrary query and returns each row keyed by column name.
func QueryRows(ctx context.Context, pool *pgxpool.Pool, sql string) ([]map[string]any, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// SaveMetadata records which simulator version last wrote to the database.
func SaveMetadata(ctx context.Context, pool *pgxpool.Pool, timezone string) error {
	metadata := map[string]string{
		"version":    version.Short(),
		"started_at": time.Now().UTC().Format(time.RFC3339),
		"timezone":   timezone,
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO parksim_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("timezone", timezone).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM parksim_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// DropSchema drops the sample and metadata tables.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range []string{SamplesTable, metadataTable} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return err
		}
	}
	return nil
}
