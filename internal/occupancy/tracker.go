//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package occupancy

import (
	"math"
)

// Per-tick ratio change limits.
const (
	DayMaxStep = 0.01
	LowMaxStep = 0.001
)

// Key identifies one (facility, space type) pair.
type Key struct {
	Facility  string
	SpaceType string
}

func (k Key) String() string {
	return k.Facility + "/" + k.SpaceType
}

// State is the occupancy of one space type of one facility.
type State struct {
	Ratio    float64
	Occupied int
}

// MaxStep returns the largest ratio change allowed in one tick.
func MaxStep(lowActivity bool) float64 {
	if lowActivity {
		return LowMaxStep
	}
	return DayMaxStep
}

// Advance moves previous toward target by at most MaxStep(lowActivity).
// When the target is within reach it is returned exactly.
func Advance(previous, target float64, lowActivity bool) float64 {
	maxStep := MaxStep(lowActivity)

	diff := target - previous
	if math.Abs(diff) <= maxStep {
		return target
	}
	return previous + math.Copysign(maxStep, diff)
}

// OccupiedCount converts a ratio into a space count within [0, capacity].
func OccupiedCount(capacity int, ratio float64) int {
	occupied := int(math.Round(float64(capacity) * ratio))
	if occupied < 0 {
		return 0
	}
	if occupied > capacity {
		return capacity
	}
	return occupied
}

// Tracker holds the state of every tracked key. It is not safe for
// concurrent use; the simulation driver is its only writer.
type Tracker struct {
	states map[Key]*State
}

// NewTracker creates a Tracker with a zero state for every key.
func NewTracker(keys []Key) *Tracker {
	t := &Tracker{states: make(map[Key]*State, len(keys))}
	for _, k := range keys {
		t.states[k] = &State{}
	}
	return t
}

// Get returns a copy of the state for key.
func (t *Tracker) Get(key Key) (State, bool) {
	s, ok := t.states[key]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return len(t.states)
}

// Seed overwrites the ratio of key, clamped to [0, 1], and derives the
// occupied count for capacity.
func (t *Tracker) Seed(key Key, capacity int, ratio float64) {
	r := clampRatio(ratio)
	t.states[key] = &State{Ratio: r, Occupied: OccupiedCount(capacity, r)}
}

// Step advances the state of key toward target and returns the new state.
// Unknown keys start from a zero ratio.
func (t *Tracker) Step(key Key, capacity int, target float64, lowActivity bool) State {
	s, ok := t.states[key]
	if !ok {
		s = &State{}
		t.states[key] = s
	}

	s.Ratio = clampRatio(Advance(s.Ratio, clampRatio(target), lowActivity))
	s.Occupied = OccupiedCount(capacity, s.Ratio)
	return *s
}

func clampRatio(r float64) float64 {
	return math.Max(0, math.Min(1, r))
}
