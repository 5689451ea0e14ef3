package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".fircount"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .fircount configuration file.
// Omitted fields keep the default. Fields where zero is a meaningful
// setting are pointers so that an explicit 0 is applied.
type File struct {
	BaseURL   string `yaml:"baseUrl,omitempty"`
	Referer   string `yaml:"referer,omitempty"`
	UserAgent string `yaml:"userAgent,omitempty"`

	Regions RangeFile `yaml:"regions,omitempty"`
	Years   RangeFile `yaml:"years,omitempty"`

	Workers   int           `yaml:"workers,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	RateLimit *float64      `yaml:"rateLimit,omitempty"`
	Proxy     string        `yaml:"proxy,omitempty"`
	MaxPages  *int          `yaml:"maxPages,omitempty"`

	Retry  RetryFile  `yaml:"retry,omitempty"`
	Jitter JitterFile `yaml:"jitter,omitempty"`

	Output string `yaml:"output,omitempty"`
	DBDir  string `yaml:"dbDir,omitempty"`

	Form Form `yaml:"form,omitempty"`
}

// RangeFile is an inclusive integer range.
type RangeFile struct {
	First int `yaml:"first,omitempty"`
	Last  int `yaml:"last,omitempty"`
}

// RetryFile overrides the retry policy.
type RetryFile struct {
	MaxAttempts int            `yaml:"maxAttempts,omitempty"`
	Base        *time.Duration `yaml:"base,omitempty"`
	Multiplier  float64        `yaml:"multiplier,omitempty"`
	Max         *time.Duration `yaml:"max,omitempty"`
	Statuses    []int          `yaml:"statuses,omitempty"`
}

// JitterFile overrides the random pauses.
type JitterFile struct {
	Min   *time.Duration `yaml:"min,omitempty"`
	Max   *time.Duration `yaml:"max,omitempty"`
	Start *time.Duration `yaml:"start,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .fircount in the current directory
// 3. Look for .fircount in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Apply copies every value set in the file onto c.
func (cf *File) Apply(c *Config) {
	if cf.BaseURL != "" {
		c.BaseURL = cf.BaseURL
	}
	if cf.Referer != "" {
		c.Referer = cf.Referer
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.Regions.First != 0 {
		c.FirstRegion = cf.Regions.First
	}
	if cf.Regions.Last != 0 {
		c.LastRegion = cf.Regions.Last
	}
	if cf.Years.First != 0 {
		c.StartYear = cf.Years.First
	}
	if cf.Years.Last != 0 {
		c.EndYear = cf.Years.Last
	}
	if cf.Workers != 0 {
		c.Workers = cf.Workers
	}
	if cf.Timeout != 0 {
		c.Timeout = cf.Timeout
	}
	if cf.RateLimit != nil {
		c.RateLimit = *cf.RateLimit
	}
	if cf.Proxy != "" {
		c.ProxyAddress = cf.Proxy
	}
	if cf.MaxPages != nil {
		c.MaxPages = *cf.MaxPages
	}
	if cf.Retry.MaxAttempts != 0 {
		c.MaxAttempts = cf.Retry.MaxAttempts
	}
	if cf.Retry.Base != nil {
		c.BackoffBase = *cf.Retry.Base
	}
	if cf.Retry.Multiplier != 0 {
		c.BackoffMultiplier = cf.Retry.Multiplier
	}
	if cf.Retry.Max != nil {
		c.BackoffMax = *cf.Retry.Max
	}
	if len(cf.Retry.Statuses) > 0 {
		c.RetryStatuses = cf.Retry.Statuses
	}
	if cf.Jitter.Min != nil {
		c.JitterMin = *cf.Jitter.Min
	}
	if cf.Jitter.Max != nil {
		c.JitterMax = *cf.Jitter.Max
	}
	if cf.Jitter.Start != nil {
		c.StartJitter = *cf.Jitter.Start
	}
	if cf.Output != "" {
		c.OutputFile = cf.Output
	}
	if cf.DBDir != "" {
		c.DBDir = cf.DBDir
	}
	c.Form = c.Form.Merge(cf.Form)
}
