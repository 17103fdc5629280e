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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/pgEdge/pgedge-parksim/internal/logging"
)

// DefaultSQLitePath is used when no path is configured.
const DefaultSQLitePath = "parksim.db"

// SQLite appends samples to a local SQLite file.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS parksim_samples (
		time        TEXT NOT NULL,
		measurement TEXT NOT NULL,
		tags        TEXT NOT NULL,
		fields      TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create samples table: %w", err)
	}

	logging.Info().Str("path", path).Msg("Opened SQLite sink")

	return &SQLite{db: db, path: path}, nil
}

// Write inserts one sample with tags and fields stored as JSON.
func (s *SQLite) Write(ctx context.Context, sample Sample) error {
	tags, err := json.Marshal(sample.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	fields, err := json.Marshal(sample.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parksim_samples (time, measurement, tags, fields) VALUES (?, ?, ?, ?)`,
		sample.Time.UTC().Format(time.RFC3339Nano), sample.Measurement, string(tags), string(fields))
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Query runs a SQL statement. SQLite's json_extract works on the tags and
// fields columns.
func (s *SQLite) Query(ctx context.Context, expr string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, expr)
	if err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Expr: expr, Err: err}
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}
	return out, nil
}

// Close closes the database.
// Reset deletes every stored sample.
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM parksim_samples`); err != nil {
		return fmt.Errorf("reset samples: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
