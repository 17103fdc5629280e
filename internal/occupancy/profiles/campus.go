//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package profiles

import (
	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
)

// Residual occupancy outside opening hours.
const nightRatio = 0.02

// Campus simulates a school or office car park.
// Night and weekend: 2%
// Morning arrival: 7:30AM - 9AM (linear ramp 0% to 100%)
// Day plateau: 9AM - 4:30PM (90%)
// Lunch dip: 11:45AM - 12:30PM (70%)
// Departure: 4:30PM - 6PM (ramp down from 50%)
type Campus struct{}

// NewCampus creates a new Campus profile.
func NewCampus() Profile {
	return &Campus{}
}

func (p *Campus) Name() string {
	return "campus"
}

func (p *Campus) Description() string {
	return "Campus car park (7:30AM-6PM weekdays, lunch dip)"
}

func (p *Campus) Target(tc occupancy.TimeContext) float64 {
	return Target(tc.Hour, tc.Weekend)
}

// Target maps a fractional local hour and weekend flag to the campus target
// ratio. The lunch sub-ranges take precedence over the day plateau.
func Target(hour float64, weekend bool) float64 {
	if weekend {
		return nightRatio
	}

	if hour < occupancy.DayStart || hour >= occupancy.DayEnd {
		return nightRatio
	}

	var target float64
	switch {
	case hour < 9:
		target = (hour - 7.5) / 1.5
	case hour >= 11.75 && hour < 12.5:
		target = 0.7
	case hour >= 12.5 && hour < 13.5:
		target = 0.9
	case hour >= 16.5:
		target = 0.5 - (hour-16.5)/3
	default:
		// 9AM - 4:30PM outside lunch
		target = 0.9
	}

	return clamp(target)
}
