//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package occupancy implements the occupancy trajectory model: time context
// resolution, the rate-limited ratio tracker and occupied-space derivation.
package occupancy

import (
	"fmt"
	"time"
)

// DefaultTimezone is the reference timezone used when none is configured.
const DefaultTimezone = "Europe/Paris"

// Low-activity regime boundaries (fractional local hours).
const (
	DayStart = 7.5
	DayEnd   = 18.0
)

// TimeContext is a single snapshot of "now" as seen in the reference
// timezone. One is resolved per tick and threaded through every consumer.
type TimeContext struct {
	// Instant is the resolved wall-clock instant.
	Instant time.Time

	// Local is Instant converted to the reference timezone.
	Local time.Time

	// Hour is hour + minute/60 in the reference timezone, in [0, 24).
	Hour float64

	// Weekend is true on Saturday and Sunday in the reference timezone.
	Weekend bool
}

// Resolver derives TimeContext values in a fixed timezone.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a Resolver for the named IANA timezone. An empty
// name selects DefaultTimezone; "Local" selects the process timezone.
func NewResolver(timezone string) (*Resolver, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	if timezone == "Local" {
		return &Resolver{loc: time.Local}, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return &Resolver{loc: loc}, nil
}

// Location returns the reference timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve converts an instant into its time context.
func (r *Resolver) Resolve(t time.Time) TimeContext {
	local := t.In(r.loc)
	weekday := local.Weekday()

	return TimeContext{
		Instant: t,
		Local:   local,
		Hour:    float64(local.Hour()) + float64(local.Minute())/60.0,
		Weekend: weekday == time.Saturday || weekday == time.Sunday,
	}
}

// IsLowActivity reports whether the context falls in the night-or-weekend
// regime, where occupancy moves at a tenth of the daytime rate.
func IsLowActivity(tc TimeContext) bool {
	return tc.Weekend || tc.Hour < DayStart || tc.Hour >= DayEnd
}
