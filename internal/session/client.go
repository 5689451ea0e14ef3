package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/nao1215/fircount/internal/session")

// Client is the HTTP client of one crawl session.
// It is safe for sequential use only, which is all a session needs.
type Client struct {
	http      *resty.Client
	transport *http.Transport
	url       string
	retry     RetryPolicy
	jitterMin time.Duration
	jitterMax time.Duration
	userAgent string
	referer   string
	timeout   time.Duration
	proxyAddr string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithReferer sets the Referer header. The default is the target URL.
func WithReferer(referer string) Option {
	return func(c *Client) {
		c.referer = referer
	}
}

// WithTimeout sets the deadline of each individual request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithJitter sets the bounds of the random pause before each request.
func WithJitter(lo, hi time.Duration) Option {
	return func(c *Client) {
		if lo >= 0 && hi >= lo {
			c.jitterMin, c.jitterMax = lo, hi
		}
	}
}

// WithProxy routes the session through a SOCKS5 proxy at "host:port".
func WithProxy(addr string) Option {
	return func(c *Client) {
		c.proxyAddr = addr
	}
}

// WithLimiter shares a request rate limiter with other sessions.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the page at target.
func New(target string, opts ...Option) (*Client, error) {
	c := &Client{
		url:       target,
		retry:     DefaultRetryPolicy(),
		jitterMin: 300 * time.Millisecond,
		jitterMax: time.Second,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.referer == "" {
		c.referer = target
	}

	transport, err := c.newTransport()
	if err != nil {
		return nil, err
	}
	c.transport = transport

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c.http = resty.New().
		SetTransport(transport).
		SetCookieJar(jar).
		SetTimeout(c.timeout).
		SetHeader("Referer", c.referer)
	if c.userAgent != "" {
		c.http.SetHeader("User-Agent", c.userAgent)
	}

	c.http.OnBeforeRequest(c.beforeRequest)
	c.http.OnAfterResponse(c.afterResponse)
	c.http.OnError(func(req *resty.Request, err error) {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
	})

	return c, nil
}

// newTransport builds a transport owned by this session only.
func (c *Client) newTransport() (*http.Transport, error) {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
		DialContext: (&net.Dialer{
			Timeout:   c.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if c.proxyAddr == "" {
		return t, nil
	}

	if _, _, err := net.SplitHostPort(c.proxyAddr); err != nil {
		return nil, ErrInvalidProxyAddress
	}
	dialer, err := proxy.SOCKS5("tcp", c.proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	t.Proxy = nil
	t.DialContext = cd.DialContext
	return t, nil
}

func (c *Client) beforeRequest(_ *resty.Client, req *resty.Request) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}
	if c.logger.Enabled(req.Context(), slog.LevelDebug) {
		attrs := make([]any, 0, len(req.FormData))
		for k := range req.FormData {
			attrs = append(attrs, slog.String(k, req.FormData.Get(k)))
		}
		c.logger.Debug("sending request", "method", req.Method, "url", req.URL, slog.Group("form", attrs...))
	}
	return nil
}

func (c *Client) afterResponse(_ *resty.Client, res *resty.Response) error {
	c.logger.Debug("received response",
		"method", res.Request.Method,
		"status", res.StatusCode(),
		"bytes", len(res.Body()),
		"elapsed", res.Time(),
	)
	return nil
}

// Get loads the page.
func (c *Client) Get(ctx context.Context) (*goquery.Document, error) {
	return c.do(ctx, http.MethodGet, nil)
}

// Post submits form to the page.
func (c *Client) Post(ctx context.Context, form url.Values) (*goquery.Document, error) {
	return c.do(ctx, http.MethodPost, form)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// do sends one logical request with retries and parses the response.
func (c *Client) do(ctx context.Context, method string, form url.Values) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "session."+method,
		trace.WithAttributes(attribute.String("url", c.url)))
	defer span.End()

	terr := &TransportError{Method: method, URL: c.url}
	maxAttempts := c.retry.attempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		terr.Attempts = attempt
		span.SetAttributes(attribute.Int("attempts", attempt))

		wait := c.pause()
		if attempt > 1 {
			wait += c.retry.Delay(attempt - 1)
		}
		if err := sleep(ctx, wait); err != nil {
			terr.Err, terr.retryable = err, false
			return nil, fail(span, terr)
		}

		req := c.http.R().SetContext(ctx)
		var res *resty.Response
		var err error
		if method == http.MethodPost {
			res, err = req.SetFormDataFromValues(form).Post(c.url)
		} else {
			res, err = req.Get(c.url)
		}

		if err != nil {
			terr.StatusCode = 0
			terr.Err = err
			if ctx.Err() != nil {
				terr.Err, terr.retryable = ctx.Err(), false
				return nil, fail(span, terr)
			}
			terr.retryable = true
			c.logger.Debug("retrying after network error", "attempt", attempt, "error", err)
			continue
		}

		status := res.StatusCode()
		if res.IsError() {
			terr.StatusCode = status
			terr.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
			terr.retryable = c.retry.Retryable(status)
			if !terr.retryable {
				return nil, fail(span, terr)
			}
			c.logger.Debug("retrying after transient status", "attempt", attempt, "status", status)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			return nil, fail(span, fmt.Errorf("failed to parse response: %w", err))
		}
		span.SetAttributes(attribute.Int("status", status))
		return doc, nil
	}

	return nil, fail(span, terr)
}

// pause draws the random delay that precedes every request.
func (c *Client) pause() time.Duration {
	if c.jitterMax <= c.jitterMin {
		return c.jitterMin
	}
	return c.jitterMin + rand.N(c.jitterMax-c.jitterMin+1) //nolint:gosec // timing jitter only
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
