//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"

	"github.com/pgEdge/pgedge-parksim/internal/facility"
	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/occupancy/profiles"
)

// Facility size bounds for generated definitions.
const (
	MinTotalSpaces = 20
	MaxTotalSpaces = 400
)

var namePrefixes = []string{"PARKING", "GARAGE", "PARC_RELAIS"}

// FacilityGenerator fabricates valid facility definitions.
type FacilityGenerator struct {
	faker *Faker
	taken map[string]bool
}

// NewFacilityGenerator creates a generator. Names in reserved are never
// produced.
func NewFacilityGenerator(f *Faker, reserved []string) *FacilityGenerator {
	taken := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		taken[name] = true
	}
	return &FacilityGenerator{faker: f, taken: taken}
}

// Generate returns n definitions, each of which passes Validate.
func (g *FacilityGenerator) Generate(n int) []facility.Definition {
	defs := make([]facility.Definition, 0, n)
	profileNames := profiles.List()

	for i := 0; i < n; i++ {
		def := g.next(profileNames)
		defs = append(defs, def)

		logging.Debug().
			Str("facility", def.Name).
			Int("total_spaces", def.TotalSpaces).
			Str("profile", def.Profile).
			Msg("Generated facility")
	}
	return defs
}

func (g *FacilityGenerator) next(profileNames []string) facility.Definition {
	total := g.faker.Int(MinTotalSpaces, MaxTotalSpaces)

	var types []facility.SpaceType
	remaining := total

	// Roughly 3% accessible and up to 15% charging spaces.
	if handicape := total * 3 / 100; handicape > 0 {
		types = append(types, facility.SpaceType{Name: "handicape", Capacity: handicape})
		remaining -= handicape
	}
	if g.faker.Bool() {
		electrique := int(float64(total) * g.faker.Float64(0.05, 0.15))
		if electrique > 0 {
			types = append(types, facility.SpaceType{Name: "electrique", Capacity: electrique})
			remaining -= electrique
		}
	}

	normal := facility.SpaceType{Name: "normal", Capacity: remaining}
	types = append([]facility.SpaceType{normal}, types...)

	// Favour the default profile three to one.
	weights := make([]int, len(profileNames))
	for i, name := range profileNames {
		weights[i] = 1
		if name == profiles.DefaultProfile {
			weights[i] = 3
		}
	}
	profile := ChooseWeighted(g.faker, profileNames, weights)
	if profile == "" {
		profile = profiles.DefaultProfile
	}

	return facility.Definition{
		Name:        g.uniqueName(),
		TotalSpaces: total,
		Profile:     profile,
		SpaceTypes:  types,
	}
}

func (g *FacilityGenerator) uniqueName() string {
	prefix := Choose(g.faker, namePrefixes)
	base := Identifier(fmt.Sprintf("%s %s %s", prefix, g.faker.City(), g.faker.StreetName()))
	if base == "" {
		base = prefix
	}

	name := base
	for i := 2; g.taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	g.taken[name] = true
	return name
}
