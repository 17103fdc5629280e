//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package main is the entry point for pgedge-parksim.
package main

import (
	"fmt"
	"os"

	// Embedded zone database.
	_ "time/tzdata"

	"github.com/pgEdge/pgedge-parksim/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
