package httpx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"unauthorized", errors.New("status 401 unauthorized"), ErrorTypeAuth},
		{"forbidden", errors.New("403 Forbidden"), ErrorTypeAuth},
		{"session expired", errors.New("session expired"), ErrorTypeAuth},
		{"connection reset", errors.New("read: connection reset by peer"), ErrorTypeNetwork},
		{"timeout", errors.New("i/o timeout"), ErrorTypeNetwork},
		{"server error", errors.New("status 503 service unavailable"), ErrorTypeRetryable},
		{"throttled", errors.New("request throttled"), ErrorTypeRetryable},
		{"bad request", errors.New("status 400: invalid payload"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, ErrorTypeName(got), ErrorTypeName(tt.want))
			}
		})
	}
}

func TestCalculateBackoffBounds(t *testing.T) {
	initial := 100 * time.Millisecond
	max := 2 * time.Second

	if got := CalculateBackoff(0, initial, max); got != 0 {
		t.Errorf("attempt 0 backoff = %v, want 0", got)
	}

	for attempt := 1; attempt <= 10; attempt++ {
		got := CalculateBackoff(attempt, initial, max)
		if got < 0 || got > max {
			t.Errorf("attempt %d backoff = %v, outside [0, %v]", attempt, got, max)
		}
	}
}

func TestExecuteWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	attempts := 0
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithRetry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteWithRetryStopsOnFatal(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	attempts := 0
	fatal := errors.New("status 400: invalid payload")
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("error = %v, want wrapped fatal error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestExecuteWithRetryHonorsContext(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		attempts++
		cancel()
		return errors.New("i/o timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
