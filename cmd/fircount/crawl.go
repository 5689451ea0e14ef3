package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/fircount/internal/config"
	"github.com/nao1215/fircount/internal/crawler"
	"github.com/nao1215/fircount/internal/database"
	"github.com/nao1215/fircount/internal/model"
	"github.com/nao1215/fircount/internal/pipeline"
	"github.com/nao1215/fircount/internal/report"
	"github.com/nao1215/fircount/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// Run outcomes stored in the database.
const (
	outcomeCompleted = "completed"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the FIR listing and write monthly counts",
		Long: `Crawl visits every district in the region range, discovers its police
stations and counts the FIRs of each station per month.

Every row is flushed to the CSV file as soon as its station is done. A
station that cannot be crawled yields a zero row; its status is kept in the
run database so that 'fircount report' can tell it from a genuine zero and
'fircount crawl --resume' can retry it.

Examples:
  # Crawl all districts with the defaults
  fircount crawl

  # Crawl three districts with 4 concurrent sessions
  fircount crawl --first-region 5 --last-region 7 --workers 4

  # Continue an interrupted run
  fircount crawl --resume

  # Route through a SOCKS5 proxy and cap the request rate
  fircount crawl --proxy 127.0.0.1:9050 --rate 2`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().String("url", config.DefaultBaseURL, "URL of the postback page")
	cmd.Flags().Int("first-region", config.DefaultFirstRegion, "First region id (inclusive)")
	cmd.Flags().Int("last-region", config.DefaultLastRegion, "Last region id (inclusive)")
	addYearFlags(cmd)

	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of concurrent sessions")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout of each request")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts, "Attempts per request including the first")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second across all sessions (0 = unlimited)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().Int("max-pages", 0, "Maximum result pages per station (0 = unlimited)")

	cmd.Flags().StringP("output", "o", config.DefaultOutputFile, "CSV output file")
	cmd.Flags().BoolP("resume", "r", false, "Skip stations already stored as complete and keep their rows")
	cmd.Flags().Bool("no-db", false, "Do not use the run database")
	addCommonFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from the configuration file and the flags.
// Flags override the file only when given explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applyYearFlags(cmd, cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		if cfg.BaseURL, err = flags.GetString("url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("first-region") {
		if cfg.FirstRegion, err = flags.GetInt("first-region"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("last-region") {
		if cfg.LastRegion, err = flags.GetInt("last-region"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-attempts") {
		if cfg.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}

	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	if noDB {
		cfg.DBDir = ""
	}

	return cfg, nil
}

// runCrawl executes the crawl described by cfg.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	buckets := model.BucketRange{StartYear: cfg.StartYear, EndYear: cfg.EndYear}
	regions := model.RegionRange(cfg.FirstRegion, cfg.LastRegion)

	var db *database.RunDB
	if cfg.DBDir != "" {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		db.SetBuckets(buckets)
		logger.Info("database opened", "path", db.Path())
	}

	csvSink, skip, err := openOutput(ctx, cfg, db, buckets, logger)
	if err != nil {
		return err
	}
	defer csvSink.Close() //nolint:errcheck // closed explicitly below on success

	sinks := []report.Sink{csvSink}
	if db != nil {
		sinks = append(sinks, db)
	}

	var runID int64
	if db != nil {
		runID, err = db.StartRun(ctx, &database.Run{
			FirstRegion: cfg.FirstRegion,
			LastRegion:  cfg.LastRegion,
			StartYear:   cfg.StartYear,
			EndYear:     cfg.EndYear,
			Resumed:     cfg.Resume,
		})
		if err != nil {
			return err
		}
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithStartJitter(cfg.StartJitter),
		pipeline.WithLogger(logger),
	}
	if skip != nil {
		opts = append(opts, pipeline.WithSkip(func(r model.Region, s model.SubRegion) bool {
			return skip[model.Task{Region: r, SubRegion: s}]
		}))
	}

	orch := pipeline.New(newWalkerFactory(cfg, logger), report.NewMultiSink(sinks...), buckets, opts...)
	stats, runErr := orch.Run(ctx, regions)

	outcome := outcomeCompleted
	switch {
	case errors.Is(runErr, context.Canceled):
		outcome = outcomeCancelled
	case runErr != nil:
		outcome = outcomeFailed
	}
	if db != nil {
		// The run context may be cancelled; the outcome must still be stored.
		if err := db.FinishRun(context.Background(), runID, outcome, statsMap(stats)); err != nil {
			logger.Error("failed to record run", "error", err)
		}
	}

	if err := csvSink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close %s: %w", cfg.OutputFile, err)
	}

	fmt.Fprintf(out, "%s: %d rows written to %s (ok %d, partial %d, failed %d, empty %d, skipped %d)\n",
		outcome, stats.Rows(), cfg.OutputFile,
		stats.OK, stats.Partial, stats.Failed, stats.Empty, stats.Skipped)
	if stats.Failed > 0 || stats.Partial > 0 {
		fmt.Fprintln(out, "Use 'fircount report' to list incomplete stations and 'fircount crawl --resume' to retry them.")
	}

	if runErr != nil {
		return fmt.Errorf("crawl %s: %w", outcome, runErr)
	}
	return nil
}

// openOutput prepares the CSV sink and, on resume, the set of pairs to skip.
//
// With a database, a resumed run rewrites the CSV from the stored ok rows so
// that retried pairs do not appear twice. Without one, the CSV is appended to.
// A fresh run clears the stored rows.
func openOutput(ctx context.Context, cfg *config.Config, db *database.RunDB, buckets model.BucketRange, logger *slog.Logger) (*report.CSVSink, map[model.Task]bool, error) {
	if db == nil {
		sink, err := report.OpenCSVFile(cfg.OutputFile, buckets, cfg.Resume)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	}

	if !cfg.Resume {
		if err := db.Reset(ctx); err != nil {
			return nil, nil, err
		}
		sink, err := report.OpenCSVFile(cfg.OutputFile, buckets, false)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	}

	done, err := db.Completed(ctx, buckets)
	if err != nil {
		return nil, nil, err
	}
	rows, err := db.Rows(ctx, buckets)
	if err != nil {
		return nil, nil, err
	}

	sink, err := report.OpenCSVFile(cfg.OutputFile, buckets, false)
	if err != nil {
		return nil, nil, err
	}
	kept := 0
	for _, row := range rows {
		if !done[model.Task{Region: row.Region, SubRegion: row.SubRegion}] {
			continue
		}
		if err := sink.Write(row); err != nil {
			_ = sink.Close()
			return nil, nil, err
		}
		kept++
	}
	logger.Info("resuming run", "completed", len(done), "rows kept", kept)
	return sink, done, nil
}

// newWalkerFactory returns a factory that opens a new session per call.
func newWalkerFactory(cfg *config.Config, logger *slog.Logger) pipeline.WalkerFactory {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	builder := crawler.NewFormBuilder(cfg.Form)
	policy := session.RetryPolicy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BackoffBase,
		Multiplier:    cfg.BackoffMultiplier,
		MaxDelay:      cfg.BackoffMax,
		RetryStatuses: cfg.RetryStatuses,
	}

	return func() (pipeline.Walker, error) {
		client, err := session.New(cfg.BaseURL,
			session.WithUserAgent(cfg.UserAgent),
			session.WithReferer(cfg.EffectiveReferer()),
			session.WithTimeout(cfg.Timeout),
			session.WithRetryPolicy(policy),
			session.WithJitter(cfg.JitterMin, cfg.JitterMax),
			session.WithProxy(cfg.ProxyAddress),
			session.WithLimiter(limiter),
			session.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return crawler.NewWalker(client, builder,
			crawler.WithWalkerLogger(logger),
			crawler.WithMaxPages(cfg.MaxPages),
		), nil
	}
}

// statsMap converts run statistics for storage.
func statsMap(s pipeline.Stats) map[string]int {
	return map[string]int{
		"regions": s.Regions,
		"tasks":   s.Tasks,
		"ok":      s.OK,
		"partial": s.Partial,
		"failed":  s.Failed,
		"empty":   s.Empty,
		"skipped": s.Skipped,
	}
}
