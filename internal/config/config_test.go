package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BaseURL is the FIR listing", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://scrb.bihar.gov.in/FIRiew.aspx" {
			t.Errorf("unexpected BaseURL %q", cfg.BaseURL)
		}
	})

	t.Run("default region range is 1..38", func(t *testing.T) {
		t.Parallel()
		if cfg.FirstRegion != 1 || cfg.LastRegion != 38 {
			t.Errorf("expected 1..38, got %d..%d", cfg.FirstRegion, cfg.LastRegion)
		}
	})

	t.Run("default year range is 2014..2025", func(t *testing.T) {
		t.Parallel()
		if cfg.StartYear != 2014 || cfg.EndYear != 2025 {
			t.Errorf("expected 2014..2025, got %d..%d", cfg.StartYear, cfg.EndYear)
		}
	})

	t.Run("default Workers is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 10 {
			t.Errorf("expected Workers to be 10, got %d", cfg.Workers)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default retry statuses", func(t *testing.T) {
		t.Parallel()
		want := []int{429, 500, 502, 503, 504}
		if len(cfg.RetryStatuses) != len(want) {
			t.Fatalf("expected %v, got %v", want, cfg.RetryStatuses)
		}
		for i := range want {
			if cfg.RetryStatuses[i] != want[i] {
				t.Errorf("expected %v, got %v", want, cfg.RetryStatuses)
			}
		}
	})

	t.Run("referer falls back to BaseURL", func(t *testing.T) {
		t.Parallel()
		if cfg.EffectiveReferer() != cfg.BaseURL {
			t.Errorf("expected referer %q, got %q", cfg.BaseURL, cfg.EffectiveReferer())
		}
	})

	t.Run("default form is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Form.Validate(); err != nil {
			t.Errorf("expected valid default form, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case breaks exactly one rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(_ *Config) {}, wantErr: nil},
		{name: "empty base URL", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: ErrNoBaseURL},
		{name: "relative base URL", mutate: func(c *Config) { c.BaseURL = "/FIRiew.aspx" }, wantErr: ErrNoBaseURL},
		{name: "reversed regions", mutate: func(c *Config) { c.FirstRegion, c.LastRegion = 5, 4 }, wantErr: ErrInvalidRegionRange},
		{name: "negative region", mutate: func(c *Config) { c.FirstRegion = -1 }, wantErr: ErrInvalidRegionRange},
		{name: "reversed years", mutate: func(c *Config) { c.StartYear, c.EndYear = 2025, 2020 }, wantErr: ErrInvalidYearRange},
		{name: "single year", mutate: func(c *Config) { c.StartYear, c.EndYear = 2021, 2021 }, wantErr: nil},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: ErrInvalidWorkers},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: ErrInvalidRetry},
		{name: "shrinking backoff", mutate: func(c *Config) { c.BackoffMultiplier = 0.5 }, wantErr: ErrInvalidRetry},
		{name: "reversed jitter", mutate: func(c *Config) { c.JitterMin, c.JitterMax = time.Second, time.Millisecond }, wantErr: ErrInvalidJitter},
		{name: "zero jitter", mutate: func(c *Config) { c.JitterMin, c.JitterMax = 0, 0 }, wantErr: nil},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -1 }, wantErr: ErrInvalidRateLimit},
		{name: "negative max pages", mutate: func(c *Config) { c.MaxPages = -1 }, wantErr: ErrInvalidMaxPages},
		{name: "missing form field", mutate: func(c *Config) { c.Form.RegionField = "" }, wantErr: ErrIncompleteForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFormMerge tests that only non-empty overrides replace defaults.
func TestFormMerge(t *testing.T) {
	t.Parallel()

	merged := DefaultForm().Merge(Form{
		ResultsTableID: "gvResults",
		SearchMode:     "radioAll",
	})

	if merged.ResultsTableID != "gvResults" {
		t.Errorf("expected overridden table id, got %q", merged.ResultsTableID)
	}
	if merged.SearchMode != "radioAll" {
		t.Errorf("expected overridden search mode, got %q", merged.SearchMode)
	}
	if merged.RegionField != DefaultRegionField {
		t.Errorf("expected default region field, got %q", merged.RegionField)
	}
	if merged.PageMarker != DefaultPageMarker {
		t.Errorf("expected default page marker, got %q", merged.PageMarker)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.fircount")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads and applies valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".fircount")
		content := `baseUrl: "http://127.0.0.1:8080/FIRiew.aspx"
regions:
  first: 3
  last: 5
years:
  first: 2020
  last: 2022
workers: 4
timeout: 10s
rateLimit: 2.5
maxPages: 40
retry:
  maxAttempts: 3
  base: 100ms
  statuses: [503]
jitter:
  min: 0s
  max: 50ms
form:
  resultsTableId: gvResults
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if cfg.BaseURL != "http://127.0.0.1:8080/FIRiew.aspx" {
			t.Errorf("unexpected BaseURL %q", cfg.BaseURL)
		}
		if cfg.FirstRegion != 3 || cfg.LastRegion != 5 {
			t.Errorf("expected regions 3..5, got %d..%d", cfg.FirstRegion, cfg.LastRegion)
		}
		if cfg.StartYear != 2020 || cfg.EndYear != 2022 {
			t.Errorf("expected years 2020..2022, got %d..%d", cfg.StartYear, cfg.EndYear)
		}
		if cfg.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", cfg.Workers)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", cfg.Timeout)
		}
		if cfg.RateLimit != 2.5 {
			t.Errorf("expected rate 2.5, got %v", cfg.RateLimit)
		}
		if cfg.MaxPages != 40 {
			t.Errorf("expected 40 max pages, got %d", cfg.MaxPages)
		}
		if cfg.MaxAttempts != 3 || cfg.BackoffBase != 100*time.Millisecond {
			t.Errorf("unexpected retry policy %d/%v", cfg.MaxAttempts, cfg.BackoffBase)
		}
		if len(cfg.RetryStatuses) != 1 || cfg.RetryStatuses[0] != 503 {
			t.Errorf("unexpected retry statuses %v", cfg.RetryStatuses)
		}
		if cfg.BackoffMultiplier != DefaultBackoffMultiplier {
			t.Errorf("expected default multiplier, got %v", cfg.BackoffMultiplier)
		}
		if cfg.JitterMax != 50*time.Millisecond {
			t.Errorf("expected 50ms jitter max, got %v", cfg.JitterMax)
		}
		if cfg.JitterMin != 0 {
			t.Errorf("expected explicit 0s jitter min, got %v", cfg.JitterMin)
		}
		if cfg.StartJitter != DefaultStartJitter {
			t.Errorf("expected default start jitter, got %v", cfg.StartJitter)
		}
		if cfg.Form.ResultsTableID != "gvResults" {
			t.Errorf("expected overridden table id, got %q", cfg.Form.ResultsTableID)
		}
		if cfg.Form.SubRegionField != DefaultSubRegionField {
			t.Errorf("expected default sub-region field, got %q", cfg.Form.SubRegionField)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected applied config to be valid, got %v", err)
		}
	})

	t.Run("explicit zero values override non-zero settings", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".fircount")
		content := `rateLimit: 0
maxPages: 0
retry:
  base: 0s
jitter:
  min: 0s
  max: 0s
  start: 0s
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cfg.RateLimit = 5
		cfg.MaxPages = 10
		file.Apply(cfg)

		if cfg.RateLimit != 0 || cfg.MaxPages != 0 {
			t.Errorf("expected rate limit and page cap cleared, got %v/%d", cfg.RateLimit, cfg.MaxPages)
		}
		if cfg.BackoffBase != 0 {
			t.Errorf("expected 0s backoff base, got %v", cfg.BackoffBase)
		}
		if cfg.BackoffMax != DefaultBackoffMax {
			t.Errorf("expected default backoff max, got %v", cfg.BackoffMax)
		}
		if cfg.JitterMin != 0 || cfg.JitterMax != 0 || cfg.StartJitter != 0 {
			t.Errorf("expected jitter disabled, got %v-%v start %v", cfg.JitterMin, cfg.JitterMax, cfg.StartJitter)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected applied config to be valid, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".fircount")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("workers: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("expected data dir to end with %q, got %q", AppName, XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected config dir to end with %q, got %q", AppName, XDGConfigDir())
	}
}
