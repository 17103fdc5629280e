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
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/pgEdge/pgedge-parksim/internal/logging"
)

// InfluxDB writes samples to an InfluxDB v2 bucket.
type InfluxDB struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	org    string
	bucket string
}

// NewInfluxDB creates an InfluxDB sink. Reachability is checked but an
// unreachable server is only logged; writes will then fail per sample.
func NewInfluxDB(ctx context.Context, cfg InfluxDBConfig) (*InfluxDB, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influxdb url, token, org and bucket are required")
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(10))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if ok, err := client.Ping(pingCtx); !ok || err != nil {
		logging.Warn().
			Err(err).
			Str("url", cfg.URL).
			Msg("InfluxDB not reachable; samples will fail until it is")
	} else {
		logging.Info().
			Str("url", cfg.URL).
			Str("org", cfg.Org).
			Str("bucket", cfg.Bucket).
			Msg("Connected to InfluxDB")
	}

	return &InfluxDB{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		org:    cfg.Org,
		bucket: cfg.Bucket,
	}, nil
}

// Write sends one point and waits for the server to acknowledge it.
// Numeric fields are written as floats.
func (s *InfluxDB) Write(ctx context.Context, sample Sample) error {
	p := influxdb2.NewPoint(sample.Measurement, sample.Tags, floatFields(sample.Fields), sample.Time)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

// Query runs a Flux query and collects every record.
func (s *InfluxDB) Query(ctx context.Context, expr string) ([]Row, error) {
	result, err := s.query.Query(ctx, expr)
	if err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}
	defer result.Close()

	var rows []Row
	for result.Next() {
		rows = append(rows, Row(result.Record().Values()))
	}
	if err := result.Err(); err != nil {
		return nil, &QueryError{Expr: expr, Err: err}
	}
	return rows, nil
}

// Close releases the HTTP client.
// Reset deletes every point in the bucket.
func (s *InfluxDB) Reset(ctx context.Context) error {
	err := s.client.DeleteAPI().DeleteWithName(ctx, s.org, s.bucket, time.Unix(0, 0), time.Now(), "")
	if err != nil {
		return fmt.Errorf("influxdb delete: %w", err)
	}
	return nil
}

func (s *InfluxDB) Close() error {
	s.client.Close()
	return nil
}

// floatFields converts integer values to float64 so a field keeps one type
// across every sample in the bucket.
func floatFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int32:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case float32:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}
