//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TickStarted()
	m.TickStarted()
	m.TickFailed()
	m.SampleEmitted(true)
	m.SampleEmitted(true)
	m.SampleEmitted(false)
	m.TickFinished(20 * time.Millisecond)

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("Expected 2 ticks, got %v", got)
	}
	if got := testutil.ToFloat64(m.tickFailures); got != 1 {
		t.Errorf("Expected 1 tick failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.samples.WithLabelValues("ok")); got != 2 {
		t.Errorf("Expected 2 ok samples, got %v", got)
	}
	if got := testutil.ToFloat64(m.samples.WithLabelValues("failed")); got != 1 {
		t.Errorf("Expected 1 failed sample, got %v", got)
	}
}

func TestSetOccupancy(t *testing.T) {
	m := New()
	m.SetOccupancy("CESI_INTERIEUR", "normal", 0.51, 21)

	if got := testutil.ToFloat64(m.occupancyRatio.WithLabelValues("CESI_INTERIEUR", "normal")); got != 0.51 {
		t.Errorf("Expected ratio 0.51, got %v", got)
	}
	if got := testutil.ToFloat64(m.occupiedSpaces.WithLabelValues("CESI_INTERIEUR", "normal")); got != 21 {
		t.Errorf("Expected 21 occupied, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TickStarted()
	m.TickFailed()
	m.TickFinished(time.Second)
	m.SampleEmitted(false)
	m.SetOccupancy("a", "b", 0.1, 1)
}

func TestHandler(t *testing.T) {
	m := New()
	m.TickStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "parksim_ticks_total 1") {
		t.Errorf("Expected ticks counter in output, got:\n%s", body)
	}
}
