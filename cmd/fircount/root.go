package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/fircount/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fircount.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fircount",
		Short: "Count FIR records per month from an ASP.NET postback listing",
		Long: `fircount crawls an ASP.NET WebForms FIR listing and counts records per
month for every (district, police station) pair.

Each pair is crawled in its own server session: the page is loaded, the
district is selected, the search is submitted and every result page is
visited by replaying its postback links. Counts are written as CSV and
kept in a local database so an interrupted run can be resumed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the logger selected by the global flags.
func setupLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	verbose := getVerboseFlag(cmd)
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		asJSON, _ = cmd.Root().PersistentFlags().GetBool("log-json") //nolint:errcheck // defaults to text
	}
	if asJSON {
		return log.NewJSONLogger(w, verbose)
	}
	return log.NewLogger(w, verbose)
}
