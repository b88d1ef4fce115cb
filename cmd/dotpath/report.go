package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/report"
	"github.com/klyr/dotpath/internal/store"
)

func newReportCmd() *cobra.Command {
	var inputPath string
	var dbPath string
	var since string
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize evaluation records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (inputPath == "") == (dbPath == "") {
				return errors.New("exactly one of --in or --db is required")
			}

			var cutoff time.Time
			if since != "" {
				dur, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid since duration: %w", err)
				}
				cutoff = time.Now().Add(-dur)
			}

			records, err := readRecords(inputPath, dbPath, cutoff)
			if err != nil {
				return err
			}

			summary := report.Summarize(records)
			switch format {
			case "", "text":
				return report.WriteOutput(outPath, []byte(report.RenderText(summary)))
			case "md":
				return report.WriteOutput(outPath, []byte(report.RenderMarkdown(summary)))
			case "json":
				data, err := report.RenderJSON(summary)
				if err != nil {
					return err
				}
				return report.WriteOutput(outPath, data)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "Path to record log JSONL")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to sqlite record store")
	cmd.Flags().StringVar(&since, "since", "", "Only include entries newer than this duration (e.g. 10m)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|md|json")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")

	return cmd
}

func readRecords(inputPath, dbPath string, since time.Time) ([]logging.Record, error) {
	if inputPath != "" {
		reader := report.Reader{Since: since}
		return reader.Read(inputPath)
	}

	db, err := store.OpenExisting(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return db.Records(since)
}
