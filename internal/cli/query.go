//-------------------------------------------------------------------------
//
// pgEdge Parking Simulator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-parksim/internal/logging"
	"github.com/pgEdge/pgedge-parksim/internal/telemetry"
)

var queryTimeout int

var queryCmd = &cobra.Command{
	Use:   "query <expression>",
	Short: "Run a query against the sample store",
	Long: `Run a query expression against the configured sample store and print
the resulting rows. The expression is Flux for InfluxDB and SQL for the
postgres and sqlite sinks.

Example:
  pgedge-parksim query 'from(bucket: "parking") |> range(start: -1h)'
  pgedge-parksim query --sink sqlite 'SELECT * FROM parksim_samples LIMIT 10'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryTimeout, "timeout", 30,
		"query timeout in seconds")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateQuery(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(queryTimeout)*time.Second)
	defer cancel()

	sink, err := telemetry.Open(ctx, cfg.SinkSettings())
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", cfg.Sink.Kind, err)
	}
	defer sink.Close()

	rows, err := sink.Query(ctx, args[0])
	if err != nil {
		logging.Error().Err(err).Str("sink", cfg.Sink.Kind).Msg("Query failed")
		return err
	}

	printRows(cmd.OutOrStdout(), rows)
	logging.Debug().Int("rows", len(rows)).Msg("Query complete")
	return nil
}

// printRows writes one line per row with columns in name order.
func printRows(w io.Writer, rows []telemetry.Row) {
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, formatValue(row[k]))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return v
}
