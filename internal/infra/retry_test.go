package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"cinevoice/internal/infra"
)

func fastRetry(attempts int) infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(2), func() error {
		calls++
		return errors.New("still failing")
	})
	if err == nil || err.Error() != "still failing" {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		return infra.Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := infra.WithRetry(ctx, fastRetry(5), func() error {
		calls++
		return errors.New("temporary")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if infra.Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		if got := infra.IsRetryableHTTPStatus(tt.code); got != tt.want {
			t.Errorf("IsRetryableHTTPStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := infra.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   3,
	}
	tests := []struct {
		n    int
		want time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 300 * time.Millisecond},
		{3, 900 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Delay(tt.n); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	flat := infra.RetryConfig{InitialDelay: 50 * time.Millisecond}
	if got := flat.Delay(4); got != 50*time.Millisecond {
		t.Errorf("multiplier below 1 should keep the delay flat, got %v", got)
	}
}
