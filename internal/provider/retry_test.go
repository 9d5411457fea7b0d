package provider

import (
	"context"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
)

func TestDoWithRetry_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := DoWithRetry(context.Background(), nil, "test", func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || out != 42 {
		t.Fatalf("out = %d, err = %v", out, err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoWithRetry_FatalStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := DoWithRetry(context.Background(), nil, "test", func() (int, error) {
		calls++
		return 0, ErrAuthInvalid
	})
	if !crerr.Is(err, ErrAuthInvalid) {
		t.Fatalf("err = %v, want auth invalid", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, fatal errors must not retry", calls)
	}
}

func TestDoWithRetry_NonTransientStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := DoWithRetry(context.Background(), nil, "test", func() (int, error) {
		calls++
		return 0, crerr.New("malformed payload")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, non-transient errors must not retry", calls)
	}
}

func TestDoWithRetry_HonorsRetryAfterHint(t *testing.T) {
	t.Parallel()

	calls := 0
	started := time.Now()
	out, err := DoWithRetry(context.Background(), nil, "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", &RateLimitedError{RetryAfter: 5 * time.Millisecond}
		}
		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("out = %q, err = %v", out, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// The advertised hint replaces the much larger exponential backoff.
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("waited %s, hint was 5ms per attempt", elapsed)
	}
}

func TestDoWithRetry_ContextCancelDuringWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := DoWithRetry(ctx, nil, "test", func() (int, error) {
		return 0, &RateLimitedError{RetryAfter: 5 * time.Second}
	})
	if !crerr.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestDoWithRetry_BudgetExhaustedReturnsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := DoWithRetry(context.Background(), nil, "test", func() (int, error) {
		calls++
		return 0, &RateLimitedError{RetryAfter: time.Millisecond}
	})
	var rl *RateLimitedError
	if !crerr.As(err, &rl) {
		t.Fatalf("err = %v, want the last rate-limit error", err)
	}
	if calls != retryBudget+1 {
		t.Fatalf("calls = %d, want %d", calls, retryBudget+1)
	}
}
