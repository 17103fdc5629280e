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

// Retail simulates a shopping centre car park.
// Night: 10PM - 8AM (5%)
// Morning: 8AM - 12PM (35%)
// Afternoon: 12PM - 5PM (60%)
// Evening peak: 5PM - 8PM (85%)
// Late: 8PM - 10PM (40%)
// Weekend: 115% of weekday
type Retail struct{}

// NewRetail creates a new Retail profile.
func NewRetail() Profile {
	return &Retail{}
}

func (p *Retail) Name() string {
	return "retail"
}

func (p *Retail) Description() string {
	return "Shopping centre car park (evening peak, busier weekends)"
}

func (p *Retail) Target(tc occupancy.TimeContext) float64 {
	hour := tc.Hour

	var base float64
	switch {
	case hour < 8 || hour >= 22:
		base = 0.05
	case hour < 12:
		base = 0.35
	case hour < 17:
		base = 0.60
	case hour < 20:
		base = 0.85
	default:
		base = 0.40
	}

	if tc.Weekend {
		base *= 1.15
	}

	return clamp(base)
}
