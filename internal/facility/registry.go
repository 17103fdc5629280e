//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package facility holds the static catalog of simulated parking facilities.
package facility

import (
	"errors"
	"fmt"

	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy/profiles"
)

// ErrConfiguration is matched by every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an invalid facility definition.
type ConfigurationError struct {
	Facility string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Facility == "" {
		return fmt.Sprintf("invalid facility catalog: %s", e.Reason)
	}
	return fmt.Sprintf("invalid facility %q: %s", e.Facility, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// SpaceType is a named partition of a facility's capacity.
type SpaceType struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Capacity int    `mapstructure:"capacity" yaml:"capacity"`
}

// Definition describes one parking facility. Space types keep their
// configuration order, which is the order samples are emitted in.
type Definition struct {
	Name        string      `mapstructure:"name" yaml:"name"`
	TotalSpaces int         `mapstructure:"total_spaces" yaml:"total_spaces"`
	Profile     string      `mapstructure:"profile" yaml:"profile,omitempty"`
	SpaceTypes  []SpaceType `mapstructure:"space_types" yaml:"space_types"`
}

// Validate checks capacities and names.
func (d Definition) Validate() error {
	if d.Name == "" {
		return &ConfigurationError{Reason: "facility name is required"}
	}
	if d.TotalSpaces <= 0 {
		return &ConfigurationError{Facility: d.Name, Reason: "total_spaces must be positive"}
	}
	if _, err := profiles.Get(d.Profile); err != nil {
		return &ConfigurationError{Facility: d.Name, Reason: err.Error()}
	}
	if len(d.SpaceTypes) == 0 {
		return &ConfigurationError{Facility: d.Name, Reason: "at least one space type is required"}
	}

	seen := make(map[string]bool, len(d.SpaceTypes))
	sum := 0
	for _, st := range d.SpaceTypes {
		if st.Name == "" {
			return &ConfigurationError{Facility: d.Name, Reason: "space type name is required"}
		}
		if seen[st.Name] {
			return &ConfigurationError{
				Facility: d.Name,
				Reason:   fmt.Sprintf("duplicate space type %q", st.Name),
			}
		}
		seen[st.Name] = true

		if st.Capacity <= 0 {
			return &ConfigurationError{
				Facility: d.Name,
				Reason:   fmt.Sprintf("space type %q capacity must be positive", st.Name),
			}
		}
		sum += st.Capacity
	}

	if sum > d.TotalSpaces {
		return &ConfigurationError{
			Facility: d.Name,
			Reason: fmt.Sprintf("space type capacities sum to %d, exceeding total_spaces %d",
				sum, d.TotalSpaces),
		}
	}
	return nil
}

// Pair is one (facility, space type) combination in catalog order.
type Pair struct {
	Key      occupancy.Key
	Profile  string
	Capacity int
}

// Registry is a validated, read-only facility catalog.
type Registry struct {
	defs []Definition
}

// New validates defs and builds a Registry. Nothing is returned on error.
func New(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, &ConfigurationError{Reason: "no facilities configured"}
	}

	names := make(map[string]bool, len(defs))
	copied := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if names[d.Name] {
			return nil, &ConfigurationError{Facility: d.Name, Reason: "duplicate facility name"}
		}
		names[d.Name] = true

		d.SpaceTypes = append([]SpaceType(nil), d.SpaceTypes...)
		copied = append(copied, d)
	}

	return &Registry{defs: copied}, nil
}

// All returns the facilities in configuration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		d.SpaceTypes = append([]SpaceType(nil), d.SpaceTypes...)
		out[i] = d
	}
	return out
}

// Pairs returns every (facility, space type) pair in configuration order.
func (r *Registry) Pairs() []Pair {
	var pairs []Pair
	for _, d := range r.defs {
		for _, st := range d.SpaceTypes {
			pairs = append(pairs, Pair{
				Key:      occupancy.Key{Facility: d.Name, SpaceType: st.Name},
				Profile:  d.Profile,
				Capacity: st.Capacity,
			})
		}
	}
	return pairs
}

// Keys returns the occupancy keys of every pair in configuration order.
func (r *Registry) Keys() []occupancy.Key {
	pairs := r.Pairs()
	keys := make([]occupancy.Key, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of facilities.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Defaults returns the built-in catalog.
func Defaults() []Definition {
	return []Definition{
		{
			Name:        "CESI_INTERIEUR",
			TotalSpaces: 50,
			SpaceTypes: []SpaceType{
				{Name: "normal", Capacity: 42},
				{Name: "handicape", Capacity: 3},
				{Name: "electrique", Capacity: 5},
			},
		},
		{
			Name:        "PARKING_ETUDIANT",
			TotalSpaces: 200,
			SpaceTypes: []SpaceType{
				{Name: "normal", Capacity: 200},
			},
		},
	}
}
