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
	"sync"
)

// Memory keeps samples in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	samples []Sample

	// Fail, when set, is consulted before each write; a non-nil result
	// rejects the sample.
	Fail func(Sample) error
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(ctx context.Context, s Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		if err := m.Fail(s); err != nil {
			return err
		}
	}
	m.samples = append(m.samples, s)
	return nil
}

// Query returns samples whose measurement equals expr, or all samples
// when expr is empty. Each row carries time, measurement, tags and fields.
func (m *Memory) Query(ctx context.Context, expr string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []Row
	for _, s := range m.samples {
		if expr != "" && s.Measurement != expr {
			continue
		}
		row := Row{"_time": s.Time, "_measurement": s.Measurement}
		for k, v := range s.Tags {
			row[k] = v
		}
		for k, v := range s.Fields {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Samples returns a copy of every accepted sample in write order.
func (m *Memory) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sample(nil), m.samples...)
}

// Reset discards every stored sample.
func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	return nil
}

func (m *Memory) Close() error {
	return nil
}
