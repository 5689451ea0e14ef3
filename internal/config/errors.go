package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and allow callers to use
// errors.Is() to tell the failing rule apart.
var (
	// ErrNoBaseURL is returned when the target page URL is empty or not absolute.
	ErrNoBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidRegionRange is returned when the first region is greater than
	// the last region, or either is negative.
	ErrInvalidRegionRange = errors.New("invalid region range: first must be >= 0 and <= last")

	// ErrInvalidYearRange is returned when the start year is after the end year.
	ErrInvalidYearRange = errors.New("invalid year range: start year must be <= end year")

	// ErrInvalidWorkers is returned when the worker pool size is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when the per-request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetry is returned when the retry policy cannot make progress:
	// no attempts, a negative delay, or a multiplier below one.
	ErrInvalidRetry = errors.New("invalid retry policy: attempts must be positive, delays non-negative, multiplier >= 1")

	// ErrInvalidJitter is returned when the pre-request delay bounds are
	// negative or reversed.
	ErrInvalidJitter = errors.New("invalid jitter: bounds must be non-negative and min <= max")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative (0 disables it)")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative (0 means no limit)")

	// ErrIncompleteForm is returned when a required form field name is empty.
	ErrIncompleteForm = errors.New("incomplete form layout: every field name must be set")
)
