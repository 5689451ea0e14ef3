package session

import (
	"math"
	"slices"
	"time"
)

// RetryPolicy bounds how often and how patiently a request is retried.
// The wait before retry n (n >= 1) is BaseDelay * Multiplier^(n-1),
// capped at MaxDelay when MaxDelay is positive.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	Multiplier    float64
	MaxDelay      time.Duration
	RetryStatuses []int
}

// DefaultRetryPolicy returns six attempts with waits of 0.8s, 1.6s, 3.2s,
// 6.4s and 12.8s, retrying 429, 500, 502, 503 and 504.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   6,
		BaseDelay:     800 * time.Millisecond,
		Multiplier:    2,
		MaxDelay:      2 * time.Minute,
		RetryStatuses: []int{429, 500, 502, 503, 504},
	}
}

// Delay returns the wait before retry n. It returns 0 for n < 1.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(n-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Schedule returns the waits between all attempts.
func (p RetryPolicy) Schedule() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	s := make([]time.Duration, p.MaxAttempts-1)
	for i := range s {
		s[i] = p.Delay(i + 1)
	}
	return s
}

// Retryable reports whether status is in RetryStatuses.
func (p RetryPolicy) Retryable(status int) bool {
	return slices.Contains(p.RetryStatuses, status)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
