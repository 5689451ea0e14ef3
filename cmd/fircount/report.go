package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/fircount/internal/database"
	"github.com/nao1215/fircount/internal/model"
	"github.com/nao1215/fircount/internal/report"
	"github.com/spf13/cobra"
)

// Report formats.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// errUnknownFormat is returned for an unsupported --format value.
var errUnknownFormat = errors.New("unknown report format (use text, markdown or json)")

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the rows stored by the last crawl",
		Long: `Report reads the run database and summarizes the stored rows: FIRs per
year and per region, row statuses, and the stations that failed or stopped
during pagination.

Examples:
  # Print a text summary
  fircount report

  # Write a Markdown summary to a file
  fircount report --format markdown -o report.md

  # Summarize a run over a different year range
  fircount report --start-year 2020 --end-year 2022 --format json`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("format", "f", formatText, "Output format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	addYearFlags(cmd)
	addCommonFlags(cmd)

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyYearFlags(cmd, cfg); err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	buckets := model.BucketRange{StartYear: cfg.StartYear, EndYear: cfg.EndYear}
	if buckets.Len() == 0 {
		return fmt.Errorf("invalid year range %d-%d", cfg.StartYear, cfg.EndYear)
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Rows(context.Background(), buckets)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := createReportFile(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return writeReport(out, format, report.NewSummary(buckets, rows, time.Now()))
}

// writeReport renders summary in format.
func writeReport(out io.Writer, format string, summary *report.Summary) error {
	var w report.Writer
	switch format {
	case formatText:
		w = report.NewSimpleWriter(out)
	case formatMarkdown:
		w = report.NewMarkdownWriter(out)
	case formatJSON:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	_, err := w.Write(summary)
	return err
}

// createReportFile creates path and its parent directories.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
