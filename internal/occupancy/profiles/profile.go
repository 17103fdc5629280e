//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package profiles implements target occupancy curves for parking facilities.
package profiles

import (
	"fmt"
	"math"
	"sort"

	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
)

// DefaultProfile is used by facilities that do not name a profile.
const DefaultProfile = "campus"

// Profile defines the interface for occupancy profiles.
type Profile interface {
	// Name returns the profile name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Target returns the occupancy ratio the facility drifts toward, in [0, 1].
	Target(tc occupancy.TimeContext) float64
}

var registry = make(map[string]func() Profile)

// Register adds a profile constructor to the registry.
func Register(name string, constructor func() Profile) {
	registry[name] = constructor
}

// Get retrieves a profile by name. An empty name selects DefaultProfile.
func Get(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	constructor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", name)
	}
	return constructor(), nil
}

// List returns all registered profile names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp(r float64) float64 {
	return math.Max(0, math.Min(1, r))
}

func init() {
	Register("campus", NewCampus)
	Register("retail", NewRetail)
}
