package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryConfig controls the backoff between attempts of a backend call.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay is the wait before attempt n+1, for n starting at 1.
func (c RetryConfig) Delay(n int) time.Duration {
	d := float64(c.InitialDelay)
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < n; i++ {
		d *= mult
		if c.MaxDelay > 0 && time.Duration(d) >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so WithRetry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry calls fn until it succeeds, returns a Permanent or context error,
// or runs out of attempts. The last failure is returned unwrapped.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for n := 1; ; n++ {
		err = fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if n >= attempts {
			return err
		}

		timer := time.NewTimer(cfg.Delay(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryableHTTPStatus reports whether a response status is worth another
// attempt: throttling and server errors.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return true
	case statusCode >= http.StatusInternalServerError:
		return true
	}
	return false
}
