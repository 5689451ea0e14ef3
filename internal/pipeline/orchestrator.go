package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nao1215/fircount/internal/aggregate"
	"github.com/nao1215/fircount/internal/crawler"
	"github.com/nao1215/fircount/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/nao1215/fircount/internal/pipeline"

// Walker crawls within one session. *crawler.Walker implements it.
type Walker interface {
	DiscoverSubRegions(ctx context.Context, region model.Region) ([]model.SubRegion, error)
	Walk(ctx context.Context, region model.Region, sub model.SubRegion, agg *aggregate.Aggregator) (crawler.WalkResult, error)
	Close() error
}

// WalkerFactory creates a Walker bound to a fresh session.
// It is called once per discovery and once per task.
type WalkerFactory func() (Walker, error)

// Sink receives finished rows. Calls are serialized by the Orchestrator.
type Sink interface {
	Write(row model.CountRow) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(row model.CountRow) error

// Write calls f(row).
func (f SinkFunc) Write(row model.CountRow) error {
	return f(row)
}

// Stats summarizes a run.
type Stats struct {
	Regions int
	Tasks   int
	OK      int
	Partial int
	Failed  int
	Empty   int
	Skipped int
}

// Rows returns the number of rows written.
func (s Stats) Rows() int {
	return s.OK + s.Partial + s.Failed + s.Empty
}

func (s *Stats) record(status model.RowStatus) {
	switch status {
	case model.StatusOK:
		s.OK++
	case model.StatusPartial:
		s.Partial++
	case model.StatusEmptyRegion:
		s.Empty++
	default:
		s.Failed++
	}
}

// Orchestrator schedules crawl tasks and hands their rows to a Sink.
type Orchestrator struct {
	factory     WalkerFactory
	sink        Sink
	buckets     model.BucketRange
	workers     int
	startJitter time.Duration
	skip        func(model.Region, model.SubRegion) bool
	logger      *slog.Logger
	rows        metric.Int64Counter

	mu    sync.Mutex
	stats Stats
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the maximum number of concurrent tasks.
// Default is 10 if not specified.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithStartJitter delays each task by a random duration in [0, d].
func WithStartJitter(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.startJitter = d
		}
	}
}

// WithSkip sets a predicate for pairs that must not be crawled again.
// Skipped pairs produce no row.
func WithSkip(skip func(model.Region, model.SubRegion) bool) Option {
	return func(o *Orchestrator) {
		o.skip = skip
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator that counts over buckets.
func New(factory WalkerFactory, sink Sink, buckets model.BucketRange, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory: factory,
		sink:    sink,
		buckets: buckets,
		workers: 10,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter("fircount.rows",
		metric.WithDescription("Rows written, by status"),
		metric.WithUnit("{row}"))
	if err != nil {
		o.logger.Debug("failed to create row counter", "error", err)
	}
	o.rows = counter
	return o
}

// Run crawls every region in order and returns the run statistics.
// It returns an error only when the sink fails or ctx is cancelled; rows of
// tasks interrupted by cancellation are not written.
func (o *Orchestrator) Run(ctx context.Context, regions []model.Region) (Stats, error) {
	start := time.Now()
	o.logger.Info("starting crawl",
		"regions", len(regions),
		"workers", o.workers,
		"buckets", o.buckets.Len(),
	)

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return o.snapshot(), err
		}
		if err := o.runRegion(ctx, region); err != nil {
			return o.snapshot(), err
		}
	}

	stats := o.snapshot()
	o.logger.Info("crawl complete",
		"regions", stats.Regions,
		"rows", stats.Rows(),
		"failed", stats.Failed,
		"partial", stats.Partial,
		"skipped", stats.Skipped,
		"elapsed", time.Since(start),
	)
	return stats, nil
}

// runRegion discovers the sub-regions of region and crawls them.
func (o *Orchestrator) runRegion(ctx context.Context, region model.Region) error {
	logger := o.logger.With("region", int(region))

	o.mu.Lock()
	o.stats.Regions++
	o.mu.Unlock()

	subs, err := o.discover(ctx, region)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("sub-region discovery failed", "error", err)
		return o.emit(ctx, model.NewZeroRow(region, "", o.buckets, model.StatusFailed, err))
	}
	if len(subs) == 0 {
		logger.Warn("region has no sub-regions")
		return o.emit(ctx, model.NewZeroRow(region, "", o.buckets, model.StatusEmptyRegion, nil))
	}
	logger.Info("crawling region", "subregions", len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, sub := range subs {
		if o.skip != nil && o.skip(region, sub) {
			o.mu.Lock()
			o.stats.Skipped++
			o.mu.Unlock()
			logger.Debug("skipping completed pair", "subregion", string(sub))
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			row, ok := o.task(gctx, region, sub)
			if !ok {
				return nil
			}
			return o.emit(gctx, row)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// discover runs sub-region discovery in its own session.
func (o *Orchestrator) discover(ctx context.Context, region model.Region) (subs []model.SubRegion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during discovery: %v", r)
		}
	}()

	w, err := o.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer w.Close() //nolint:errcheck // idle connections only

	return w.DiscoverSubRegions(ctx, region)
}

// task crawls one pair. It reports false when the row must be dropped
// because ctx was cancelled.
func (o *Orchestrator) task(ctx context.Context, region model.Region, sub model.SubRegion) (row model.CountRow, ok bool) {
	logger := o.logger.With("region", int(region), "subregion", string(sub))

	o.mu.Lock()
	o.stats.Tasks++
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.Warn("task failed", "error", err)
			row, ok = model.NewZeroRow(region, sub, o.buckets, model.StatusFailed, err), ctx.Err() == nil
		}
	}()

	if err := o.wait(ctx); err != nil {
		return model.CountRow{}, false
	}

	w, err := o.factory()
	if err != nil {
		err = fmt.Errorf("failed to create session: %w", err)
		logger.Warn("task failed", "error", err)
		return model.NewZeroRow(region, sub, o.buckets, model.StatusFailed, err), true
	}
	defer w.Close() //nolint:errcheck // idle connections only

	agg := aggregate.New(o.buckets)
	res, err := w.Walk(ctx, region, sub, agg)
	if ctx.Err() != nil {
		logger.Debug("task cancelled")
		return model.CountRow{}, false
	}
	if err != nil {
		logger.Warn("task failed", "error", err)
		return model.NewZeroRow(region, sub, o.buckets, model.StatusFailed, err), true
	}

	status := model.StatusOK
	if res.Truncated {
		status = model.StatusPartial
		if !errors.Is(res.Err, crawler.ErrPageLimit) {
			logger.Warn("task truncated", "pages", res.Pages, "error", res.Err)
		}
	}
	row = agg.Row(region, sub, status)
	row.Pages = res.Pages
	row.Err = res.Err

	rows, dated := agg.Seen()
	logger.Info("task complete",
		"status", status.String(),
		"pages", res.Pages,
		"rows", rows,
		"dated", dated,
		"counted", row.Total(),
	)
	return row, true
}

// wait sleeps for the start jitter.
func (o *Orchestrator) wait(ctx context.Context) error {
	if o.startJitter <= 0 {
		return ctx.Err()
	}
	d := rand.N(o.startJitter + 1) //nolint:gosec // timing jitter only
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emit writes row to the sink and records it.
func (o *Orchestrator) emit(ctx context.Context, row model.CountRow) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.sink.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d/%s: %w", row.Region, row.SubRegion, err)
	}
	o.stats.record(row.Status)
	if o.rows != nil {
		o.rows.Add(ctx, 1, metric.WithAttributes(attribute.String("status", row.Status.String())))
	}
	return nil
}

func (o *Orchestrator) snapshot() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}
