package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/fircount/internal/aggregate"
	"github.com/nao1215/fircount/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/nao1215/fircount/internal/crawler")

// ErrPageLimit is reported in WalkResult.Err when WithMaxPages stopped a walk.
var ErrPageLimit = errors.New("page limit reached")

// Navigator sends requests within one server-side session. Implementations
// must keep the session cookie between calls.
type Navigator interface {
	// Get loads the page without submitting a form.
	Get(ctx context.Context) (*goquery.Document, error)
	// Post submits form to the page and returns the re-rendered page.
	Post(ctx context.Context, form url.Values) (*goquery.Document, error)
}

// WalkResult describes how a walk ended.
type WalkResult struct {
	// Pages is the number of result pages parsed, including the first.
	Pages int
	// Truncated is set when pagination stopped before the last page.
	Truncated bool
	// Err is the cause of truncation.
	Err error
}

// Walker runs the postback sequence of one session.
// A Walker is bound to one Navigator and must not be used concurrently.
type Walker struct {
	nav      Navigator
	builder  *FormBuilder
	logger   *slog.Logger
	maxPages int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithWalkerLogger sets a custom logger.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithMaxPages stops pagination after n result pages. Zero, the default,
// means no limit: the walk ends only when no unseen page-turn action is left.
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) {
		if n >= 0 {
			w.maxPages = n
		}
	}
}

// NewWalker creates a Walker.
func NewWalker(nav Navigator, builder *FormBuilder, opts ...WalkerOption) *Walker {
	w := &Walker{
		nav:     nav,
		builder: builder,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Close closes the Navigator if it holds resources.
func (w *Walker) Close() error {
	if c, ok := w.nav.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DiscoverSubRegions loads the page, selects region and returns the
// sub-regions offered in the dependent list. An absent list is not an error.
func (w *Walker) DiscoverSubRegions(ctx context.Context, region model.Region) ([]model.SubRegion, error) {
	ctx, span := tracer.Start(ctx, "crawler.DiscoverSubRegions",
		trace.WithAttributes(attribute.Int("region", int(region))))
	defer span.End()

	tokens, err := w.open(ctx)
	if err != nil {
		return nil, spanError(span, err)
	}

	form := w.builder.Form()
	doc, err := w.nav.Post(ctx, w.builder.RegionChange(tokens, region, form.DiscoveryMode))
	if err != nil {
		return nil, spanError(span, fmt.Errorf("failed to select region %d: %w", region, err))
	}

	subs := ExtractOptions(doc, form.SubRegionSelectID, form.UnsetSubRegion)
	span.SetAttributes(attribute.Int("subregions", len(subs)))
	w.logger.Debug("discovered sub-regions", "region", int(region), "count", len(subs))
	return subs, nil
}

// Walk selects (region, sub), submits the search and feeds every result
// page to agg.
//
// A failure before the first result page is returned as an error. A
// failure while paginating ends the walk without an error: the result is
// marked Truncated and agg keeps the rows of the pages already parsed.
func (w *Walker) Walk(ctx context.Context, region model.Region, sub model.SubRegion, agg *aggregate.Aggregator) (WalkResult, error) {
	ctx, span := tracer.Start(ctx, "crawler.Walk",
		trace.WithAttributes(
			attribute.Int("region", int(region)),
			attribute.String("subregion", string(sub)),
		))
	defer span.End()

	form := w.builder.Form()
	logger := w.logger.With("region", int(region), "subregion", string(sub))

	tokens, err := w.open(ctx)
	if err != nil {
		return WalkResult{}, spanError(span, err)
	}

	doc, err := w.nav.Post(ctx, w.builder.RegionChange(tokens, region, form.SearchMode))
	if err != nil {
		return WalkResult{}, spanError(span, fmt.Errorf("failed to select region %d: %w", region, err))
	}
	tokens = ExtractTokens(doc)

	doc, err = w.nav.Post(ctx, w.builder.Search(tokens, region, sub))
	if err != nil {
		return WalkResult{}, spanError(span, fmt.Errorf("failed to submit search: %w", err))
	}

	var result WalkResult
	pager := newPager(form.PageMarker, form.FirstPageArgument)

	for {
		result.Pages++
		counted := agg.IngestAll(ExtractRows(doc, form.ResultsTableID))
		tokens = ExtractTokens(doc)
		pager.offer(ExtractPostbacks(doc))
		logger.Debug("parsed result page", "page", result.Pages, "counted", counted, "pending", pager.pending())

		action, ok := pager.next()
		if !ok {
			break
		}
		if w.maxPages > 0 && result.Pages >= w.maxPages {
			result.Truncated = true
			result.Err = ErrPageLimit
			break
		}

		doc, err = w.nav.Post(ctx, w.builder.PageTurn(tokens, region, sub, action))
		if err != nil {
			if ctx.Err() != nil {
				return result, spanError(span, ctx.Err())
			}
			result.Truncated = true
			result.Err = fmt.Errorf("failed to load page %q: %w", action.Argument, err)
			logger.Warn("pagination stopped", "pages", result.Pages, "error", result.Err)
			break
		}
	}

	span.SetAttributes(
		attribute.Int("pages", result.Pages),
		attribute.Bool("truncated", result.Truncated),
	)
	return result, nil
}

// open loads the page and returns its initial tokens.
func (w *Walker) open(ctx context.Context) (model.StateTokens, error) {
	doc, err := w.nav.Get(ctx)
	if err != nil {
		return model.StateTokens{}, fmt.Errorf("failed to load form: %w", err)
	}
	return ExtractTokens(doc), nil
}

// pager tracks page-turn actions. Each argument is visited at most once,
// in the order it was first offered.
type pager struct {
	marker string
	seen   map[string]bool
	queue  []model.PostbackAction
}

func newPager(marker, current string) *pager {
	p := &pager{marker: marker, seen: make(map[string]bool)}
	if current != "" {
		p.seen[current] = true
	}
	return p
}

// offer queues the unseen page-turn actions among actions.
func (p *pager) offer(actions []model.PostbackAction) {
	for _, a := range PageActions(actions, p.marker) {
		if p.seen[a.Argument] {
			continue
		}
		p.seen[a.Argument] = true
		p.queue = append(p.queue, a)
	}
}

// next pops the oldest queued action.
func (p *pager) next() (model.PostbackAction, bool) {
	if len(p.queue) == 0 {
		return model.PostbackAction{}, false
	}
	a := p.queue[0]
	p.queue = p.queue[1:]
	return a, true
}

func (p *pager) pending() int {
	return len(p.queue)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
