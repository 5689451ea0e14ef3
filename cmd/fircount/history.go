package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/fircount/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous crawl runs",
		Long: `History lists the crawl runs recorded in the run database, newest first,
with their parameters, outcome and row counts.

Examples:
  fircount history
  fircount history -n 50`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	addCommonFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return err
		}
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := db.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// printRuns writes runs as a table.
func printRuns(out io.Writer, runs []database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'fircount crawl' to start one.")
		return
	}

	fmt.Fprintf(out, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-5s  %-19s  %-9s  %-7s  %-9s  %-10s  %s\n",
		"ID", "Started", "Regions", "Years", "Resumed", "Outcome", "Rows")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))

	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "running"
		}
		resumed := "no"
		if r.Resumed {
			resumed = "yes"
		}
		fmt.Fprintf(out, "  %-5d  %-19s  %-9s  %-7s  %-9s  %-10s  %s\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d-%d", r.FirstRegion, r.LastRegion),
			fmt.Sprintf("%02d-%02d", r.StartYear%100, r.EndYear%100),
			resumed,
			outcome,
			formatStats(r.Stats),
		)
	}
}

// formatStats formats the stored row counts into a compact string.
func formatStats(stats map[string]int) string {
	if len(stats) == 0 {
		return "N/A"
	}

	var parts []string
	for _, key := range []string{"ok", "partial", "failed", "empty", "skipped"} {
		if v := stats[key]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", key, v))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
