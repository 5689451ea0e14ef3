package config

import (
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values reproduce the behaviour of the FIR counting job this tool
// was written for.
const (
	// DefaultBaseURL is the FIR listing page. All navigation happens by
	// posting back to this single URL.
	DefaultBaseURL = "https://scrb.bihar.gov.in/FIRiew.aspx"

	// DefaultFirstRegion and DefaultLastRegion bound the district ids.
	DefaultFirstRegion = 1
	DefaultLastRegion  = 38

	// DefaultStartYear and DefaultEndYear bound the month columns.
	DefaultStartYear = 2014
	DefaultEndYear   = 2025

	// DefaultWorkers is the number of police stations crawled at once.
	DefaultWorkers = 10

	// DefaultTimeout is the deadline of a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is one initial attempt plus five retries.
	DefaultMaxAttempts = 6

	// DefaultBackoffBase, DefaultBackoffMultiplier and DefaultBackoffMax give
	// the delays 0.8s, 1.6s, 3.2s, 6.4s, 12.8s between attempts.
	DefaultBackoffBase       = 800 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
	DefaultBackoffMax        = 2 * time.Minute

	// DefaultJitterMin and DefaultJitterMax bound the random pause before
	// every request.
	DefaultJitterMin = 300 * time.Millisecond
	DefaultJitterMax = 1 * time.Second

	// DefaultStartJitter is the upper bound of the random pause before a
	// crawl task opens its session.
	DefaultStartJitter = 300 * time.Millisecond

	// DefaultUserAgent is sent with every request. The portal rejects
	// obviously non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36"

	// DefaultOutputFile is the CSV file written by the crawl command.
	DefaultOutputFile = "fir_counts.csv"

	// AppName is the application name used for XDG directory paths.
	AppName = "fircount"
)

// DefaultRetryStatuses are the HTTP statuses treated as transient.
func DefaultRetryStatuses() []int {
	return []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
}

// Config holds all configuration options for fircount.
// It is populated from defaults, then the configuration file, then CLI
// flags, and passed down explicitly rather than kept in global state.
type Config struct {
	// BaseURL is the postback page. Every GET and POST goes to this URL.
	BaseURL string

	// Referer is sent with every request. Empty means BaseURL.
	Referer string

	// UserAgent is sent with every request.
	UserAgent string

	// FirstRegion and LastRegion bound the inclusive region id range.
	FirstRegion int
	LastRegion  int

	// StartYear and EndYear bound the inclusive year range. Records dated
	// outside this range are not counted.
	StartYear int
	EndYear   int

	// Workers caps the number of concurrent crawl sessions.
	Workers int

	// Timeout is the deadline of each individual request.
	Timeout time.Duration

	// MaxAttempts is the number of tries per request including the first.
	MaxAttempts int

	// BackoffBase is the delay after the first failed attempt. Each later
	// delay is multiplied by BackoffMultiplier and capped at BackoffMax.
	BackoffBase       time.Duration
	BackoffMultiplier float64
	BackoffMax        time.Duration

	// RetryStatuses are the HTTP statuses that are retried. Any other
	// status >= 400 fails the request immediately.
	RetryStatuses []int

	// JitterMin and JitterMax bound the random pause before each request.
	JitterMin time.Duration
	JitterMax time.Duration

	// StartJitter bounds the random pause before a task starts.
	StartJitter time.Duration

	// MaxPages stops pagination of one pair after this many result pages.
	// Zero means no limit.
	MaxPages int

	// RateLimit is the maximum number of requests per second across all
	// sessions. Zero disables the limiter.
	RateLimit float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// OutputFile is the CSV destination.
	OutputFile string

	// Resume appends to OutputFile and skips pairs already stored as ok in
	// the database.
	Resume bool

	// DBDir is the directory of the SQLite run store. Empty disables it.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .fircount in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Form is the layout of the postback page.
	Form Form
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		FirstRegion:       DefaultFirstRegion,
		LastRegion:        DefaultLastRegion,
		StartYear:         DefaultStartYear,
		EndYear:           DefaultEndYear,
		Workers:           DefaultWorkers,
		Timeout:           DefaultTimeout,
		MaxAttempts:       DefaultMaxAttempts,
		BackoffBase:       DefaultBackoffBase,
		BackoffMultiplier: DefaultBackoffMultiplier,
		BackoffMax:        DefaultBackoffMax,
		RetryStatuses:     DefaultRetryStatuses(),
		JitterMin:         DefaultJitterMin,
		JitterMax:         DefaultJitterMax,
		StartJitter:       DefaultStartJitter,
		OutputFile:        DefaultOutputFile,
		DBDir:             XDGDataDir(),
		Form:              DefaultForm(),
	}
}

// EffectiveReferer returns Referer, falling back to BaseURL.
func (c *Config) EffectiveReferer() string {
	if c.Referer != "" {
		return c.Referer
	}
	return c.BaseURL
}

// XDGDataDir returns the XDG data directory for fircount.
// On Linux: ~/.local/share/fircount
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fircount.
// On Linux: ~/.config/fircount
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first rule that fails, as one of the sentinel errors in
// errors.go.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrNoBaseURL
	}

	if c.FirstRegion < 0 || c.FirstRegion > c.LastRegion {
		return ErrInvalidRegionRange
	}

	if c.StartYear > c.EndYear {
		return ErrInvalidYearRange
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxAttempts <= 0 || c.BackoffBase < 0 || c.BackoffMax < 0 || c.BackoffMultiplier < 1 {
		return ErrInvalidRetry
	}

	if c.JitterMin < 0 || c.JitterMax < c.JitterMin || c.StartJitter < 0 {
		return ErrInvalidJitter
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	return c.Form.Validate()
}
