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
	"math"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-parksim/internal/occupancy"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name      string
		profile   string
		wantName  string
		wantError bool
	}{
		{"campus", "campus", "campus", false},
		{"retail", "retail", "retail", false},
		{"empty selects default", "", DefaultProfile, false},
		{"invalid profile", "invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Get(tt.profile)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if profile.Name() != tt.wantName {
				t.Errorf("Expected profile '%s', got '%s'", tt.wantName, profile.Name())
			}
			if profile.Description() == "" {
				t.Error("Expected a description")
			}
		})
	}
}

func TestList(t *testing.T) {
	names := List()
	if len(names) < 2 {
		t.Fatalf("Expected at least 2 profiles, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("List not sorted: %v", names)
		}
	}
}

func TestCampusTargetBoundaries(t *testing.T) {
	const eps = 1e-9

	testCases := []struct {
		hour        float64
		weekend     bool
		want        float64
		description string
	}{
		{0, false, 0.02, "midnight"},
		{7.49, false, 0.02, "just before ramp"},
		{7.5, false, 0.0, "start of ramp"},
		{8.25, false, 0.5, "middle of ramp"},
		{8.99, false, 0.9933333333, "end of ramp"},
		{9.0, false, 0.9, "plateau start"},
		{11.5, false, 0.9, "late morning"},
		{11.75, false, 0.7, "lunch dip start"},
		{12.0, false, 0.7, "lunch dip"},
		{12.5, false, 0.9, "after lunch"},
		{13.0, false, 0.9, "early afternoon"},
		{15.0, false, 0.9, "afternoon plateau"},
		{16.5, false, 0.5, "departure start"},
		{17.5, false, 0.5 - 1.0/3.0, "departure ramp"},
		{18.0, false, 0.02, "evening"},
		{23.99, false, 0.02, "late night"},
		{10.0, true, 0.02, "weekend morning"},
		{12.0, true, 0.02, "weekend lunch"},
		{3.0, true, 0.02, "weekend night"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := Target(tc.hour, tc.weekend)
			if math.Abs(got-tc.want) > eps {
				t.Errorf("Target(%v, %v) = %v, want %v", tc.hour, tc.weekend, got, tc.want)
			}
		})
	}
}

func TestCampusTargetRange(t *testing.T) {
	for _, weekend := range []bool{false, true} {
		for m := 0; m < 24*60; m++ {
			hour := float64(m) / 60
			got := Target(hour, weekend)
			if got < 0 || got > 1 {
				t.Fatalf("Target(%v, %v) = %v out of [0, 1]", hour, weekend, got)
			}
			if weekend && got != 0.02 {
				t.Fatalf("Weekend target at %v should be 0.02, got %v", hour, got)
			}
		}
	}
}

func TestCampusTargetIdempotent(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := Target(9.0, false); got != 0.9 {
			t.Fatalf("Target(9.0, false) = %v on call %d", got, i)
		}
	}
}

func TestCampusProfileUsesTimeContext(t *testing.T) {
	r, err := occupancy.NewResolver("Europe/Paris")
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}
	profile, _ := Get("campus")

	// 10:00 UTC on a Tuesday in June is noon in Paris.
	tc := r.Resolve(time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC))
	if got := profile.Target(tc); got != 0.7 {
		t.Errorf("Expected lunch dip 0.7, got %v", got)
	}
}

func TestRetailProfile(t *testing.T) {
	profile, _ := Get("retail")

	evening := profile.Target(occupancy.TimeContext{Hour: 18.5})
	night := profile.Target(occupancy.TimeContext{Hour: 3})
	weekendEvening := profile.Target(occupancy.TimeContext{Hour: 18.5, Weekend: true})

	if evening <= night {
		t.Errorf("Evening should be busier than night: evening=%v, night=%v", evening, night)
	}
	if weekendEvening <= evening {
		t.Errorf("Weekend evening should be busier than weekday: %v <= %v", weekendEvening, evening)
	}
}

func TestProfileTargetRange(t *testing.T) {
	r, _ := occupancy.NewResolver("Europe/Paris")

	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			profile, err := Get(name)
			if err != nil {
				t.Fatalf("Failed to get profile: %v", err)
			}

			start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 7*24*4; i++ {
				tc := r.Resolve(start.Add(time.Duration(i) * 15 * time.Minute))
				level := profile.Target(tc)
				if level < 0 || level > 1 {
					t.Errorf("%s: target should be in [0, 1] at %v, got %f", name, tc.Local, level)
				}
			}
		})
	}
}

func BenchmarkTarget(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Target(float64(i%24), false)
	}
}
